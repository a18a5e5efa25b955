package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/snesdev/disasm65816/pkg/addr"
	"github.com/snesdev/disasm65816/pkg/annotate"
	"github.com/snesdev/disasm65816/pkg/byteprop"
	"github.com/snesdev/disasm65816/pkg/disasm"
	"github.com/snesdev/disasm65816/pkg/romsrc"
	"github.com/snesdev/disasm65816/pkg/sink"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "disasm65816",
		Short: "Static disassembler for 16-bit 65816-family ROM images",
	}

	var (
		romPath      string
		headerSize   int
		loromFlag    bool
		hiromFlag    bool
		symbolsPath  string
		symbolsAlt   string
		dataPath     string
		databanks    string
		commentsPath string
		offsetsPath  string
		accumWidths  string
		outPath      string
	)
	rootCmd.PersistentFlags().StringVar(&romPath, "rom", "", "ROM image path (required)")
	rootCmd.PersistentFlags().IntVar(&headerSize, "header-size", 0, "Copier header size in bytes to skip")
	rootCmd.PersistentFlags().BoolVar(&loromFlag, "lorom", false, "Force LoROM mapping")
	rootCmd.PersistentFlags().BoolVar(&hiromFlag, "hirom", false, "Force HiROM mapping")
	rootCmd.PersistentFlags().StringVar(&symbolsPath, "symbols", "", "Primary symbol sidecar file")
	rootCmd.PersistentFlags().StringVar(&symbolsAlt, "symbols-alt", "", "Alternate two-column symbol sidecar file")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "Data/pointer-region sidecar file")
	rootCmd.PersistentFlags().StringVar(&databanks, "databanks", "", "Data-bank hint sidecar file")
	rootCmd.PersistentFlags().StringVar(&commentsPath, "comments", "", "Comment sidecar file")
	rootCmd.PersistentFlags().StringVar(&offsetsPath, "offsets", "", "Load-offset sidecar file")
	rootCmd.PersistentFlags().StringVar(&accumWidths, "accum-widths", "", "Register-width reset sidecar file")
	rootCmd.PersistentFlags().StringVar(&outPath, "out", "", "Output file (default stdout)")

	makeRequest := func(reqType disasm.Type) *cobra.Command {
		var (
			start, end       string
			quiet            bool
			accum16          bool
			index16          bool
			startAccum16     bool
			startIndex16     bool
			stopAtRTS        bool
			externSymbols    bool
			printDataAddr    bool
			passes           int
			bytesPerLine     int
			commentLevel     int
			progress         bool
		)

		cmd := &cobra.Command{
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if romPath == "" {
					return fmt.Errorf("--rom is required")
				}
				startBank, startAddr, err := parseBankAddr(start)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				endBank, endAddr, err := parseBankAddr(end)
				if err != nil {
					return fmt.Errorf("--end: %w", err)
				}

				romData, err := os.ReadFile(romPath)
				if err != nil {
					return fmt.Errorf("reading rom: %w", err)
				}

				hirom, err := resolveMapping(romData, headerSize, loromFlag, hiromFlag)
				if err != nil {
					return err
				}

				props := byteprop.New(hirom)
				props.Diag = os.Stderr
				if err := loadAnnotations(props, hirom, symbolsPath, symbolsAlt, dataPath, databanks, commentsPath, offsetsPath, accumWidths); err != nil {
					return err
				}

				out := os.Stdout
				if outPath != "" {
					f, err := os.Create(outPath)
					if err != nil {
						return fmt.Errorf("creating output: %w", err)
					}
					defer f.Close()
					out = f
				}

				src := romsrc.NewFileSource(romData, headerSize)
				snk := sink.NewPlainText(out)
				engine := disasm.NewEngine(props, src, snk, hirom, os.Stderr)

				req := disasm.Request{
					Type:         reqType,
					StartBank:    startBank,
					StartAddr:    startAddr,
					EndBank:      endBank,
					EndAddr:      endAddr,
					BytesPerLine: bytesPerLine,
					Properties: disasm.Properties{
						CommentLevel:     commentLevel,
						Quiet:            quiet,
						Accum16:          accum16,
						Index16:          index16,
						StopAtRTS:        stopAtRTS,
						UseExternSymbols: externSymbols,
						PrintDataAddr:    printDataAddr,
						Passes:           passes,
						StartAccum16:     startAccum16,
						StartIndex16:     startIndex16,
					},
				}
				if !progress {
					return engine.HandleRequest(req)
				}
				return runWithProgress(engine, req)
			},
		}
		cmd.Flags().StringVar(&start, "start", "", "Start address as bank:addr16, e.g. 00:8000 (required)")
		cmd.Flags().StringVar(&end, "end", "", "End address (exclusive), e.g. 00:8100 (required)")
		cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress comments in output")
		cmd.Flags().BoolVar(&accum16, "accum16", false, "Set the request's accum16 property (decode width is seeded by --start-accum16)")
		cmd.Flags().BoolVar(&index16, "index16", false, "Set the request's index16 property (decode width is seeded by --start-index16)")
		cmd.Flags().BoolVar(&startAccum16, "start-accum16", false, "Seed the initial accumulator width as 16-bit")
		cmd.Flags().BoolVar(&startIndex16, "start-index16", false, "Seed the initial index width as 16-bit")
		cmd.Flags().BoolVar(&stopAtRTS, "stop-at-rts", false, "Stop the Asm run at the first RTS/RTL/RTI")
		cmd.Flags().BoolVar(&externSymbols, "extern-symbols", false, "Resolve labels outside the requested range too")
		cmd.Flags().BoolVar(&printDataAddr, "print-data-addr", false, "Set the request's print-data-addr property; the engine and plain-text sink do not print data addresses")
		cmd.Flags().IntVar(&passes, "passes", 2, "Number of passes for Smart mode (1 or 2)")
		cmd.Flags().IntVar(&bytesPerLine, "bytes-per-line", 0, "Dcb bytes per line (0 = default of 16)")
		cmd.Flags().IntVar(&commentLevel, "comment-level", 0, "Set the request's comment level; the engine does not read it (only --quiet affects comments)")
		cmd.Flags().BoolVar(&progress, "progress", false, "Print periodic progress to stderr (useful on a large Smart run)")
		cmd.MarkFlagRequired("start")
		cmd.MarkFlagRequired("end")
		return cmd
	}

	asmCmd := makeRequest(disasm.Asm)
	asmCmd.Use = "asm"
	asmCmd.Short = "Disassemble a range as straight-line code"

	dcbCmd := makeRequest(disasm.Dcb)
	dcbCmd.Use = "dcb"
	dcbCmd.Short = "Emit a range as .db data lines"

	ptrCmd := makeRequest(disasm.Ptr)
	ptrCmd.Use = "ptr"
	ptrCmd.Short = "Emit a range as a short-pointer (.dw) table"

	ptrLongCmd := makeRequest(disasm.PtrLong)
	ptrLongCmd.Use = "ptrlong"
	ptrLongCmd.Short = "Emit a range as a long-pointer table"

	smartCmd := makeRequest(disasm.Smart)
	smartCmd.Use = "smart"
	smartCmd.Short = "Partition a range by byte classification and disassemble each run"

	rootCmd.AddCommand(asmCmd, dcbCmd, ptrCmd, ptrLongCmd, smartCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runWithProgress runs the request on its own goroutine while the caller's
// goroutine ticks a periodic progress line to stderr. No worker pool, no
// shared mutex: engine.Cursor is the only state crossing the goroutine
// boundary, and atomic.Uint64 makes that safe without one.
func runWithProgress(engine *disasm.Engine, req disasm.Request) error {
	done := make(chan error, 1)
	go func() { done <- engine.HandleRequest(req) }()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			cur := addr.Addr24(engine.Cursor.Load())
			bank, a16 := addr.Split(cur)
			fmt.Fprintf(os.Stderr, "progress: %02X:%04X\n", bank, a16)
		}
	}
}

// parseBankAddr parses "bb:aaaa" into its bank and 16-bit offset.
func parseBankAddr(s string) (bank uint8, addr16 uint16, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected bank:addr16, got %q", s)
	}
	b, err := strconv.ParseUint(parts[0], 16, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("bad bank %q: %w", parts[0], err)
	}
	a, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad address %q: %w", parts[1], err)
	}
	return uint8(b), uint16(a), nil
}

// resolveMapping honors an explicit --lorom/--hirom override, falling back
// to header detection.
func resolveMapping(romData []byte, headerSize int, lorom, hirom bool) (bool, error) {
	if lorom && hirom {
		return false, fmt.Errorf("--lorom and --hirom are mutually exclusive")
	}
	if lorom {
		return false, nil
	}
	if hirom {
		return true, nil
	}
	body := romData
	if headerSize > 0 && headerSize <= len(romData) {
		body = romData[headerSize:]
	}
	return romsrc.DetectMapping(body), nil
}

func loadAnnotations(props *byteprop.Map, hirom bool, symbolsPath, symbolsAlt, dataPath, databanks, commentsPath, offsetsPath, accumWidths string) error {
	loaders := []struct {
		path string
		load func(*byteprop.Map, *os.File, bool, *os.File) error
	}{
		{symbolsPath, func(p *byteprop.Map, f *os.File, h bool, d *os.File) error { return annotate.LoadSymbols(p, f, h, d) }},
		{symbolsAlt, func(p *byteprop.Map, f *os.File, h bool, d *os.File) error { return annotate.LoadSymbolsAlt(p, f, h, d) }},
		{dataPath, func(p *byteprop.Map, f *os.File, h bool, d *os.File) error { return annotate.LoadData(p, f, h, d) }},
		{databanks, func(p *byteprop.Map, f *os.File, h bool, d *os.File) error { return annotate.LoadDataBanks(p, f, h, d) }},
		{commentsPath, func(p *byteprop.Map, f *os.File, h bool, d *os.File) error { return annotate.LoadComments(p, f, h, d) }},
		{offsetsPath, func(p *byteprop.Map, f *os.File, h bool, d *os.File) error { return annotate.LoadOffsets(p, f, h, d) }},
		{accumWidths, func(p *byteprop.Map, f *os.File, h bool, d *os.File) error { return annotate.LoadAccumWidths(p, f, h, d) }},
	}
	for _, l := range loaders {
		if l.path == "" {
			continue
		}
		f, err := os.Open(l.path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", l.path, err)
		}
		err = l.load(props, f, hirom, os.Stderr)
		f.Close()
		if err != nil {
			return fmt.Errorf("loading %s: %w", l.path, err)
		}
	}
	return nil
}
