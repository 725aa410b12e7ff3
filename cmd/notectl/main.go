// Command notectl inspects the note store and runs the feature extractor on
// local files without starting the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"voicenote/internal/config"
	"voicenote/internal/export"
	"voicenote/internal/extract"
	"voicenote/internal/logger"
	"voicenote/internal/notes"
	"voicenote/internal/provider"
	"voicenote/internal/store"
)

const usage = `usage: notectl <command> [flags] [args]

commands:
  extract [-summary file] [-json] <file|->   derive summary, todos and tags from text
  list [-tag t] [-json]                      list stored notes, newest first
  show [-json] <id>                          print one note
  export <id> <out.docx>                     write a note as a Word document
  add <audio file>                           transcribe audio with the configured provider and store it
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]
	if cmd == "extract" {
		return runExtract(rest, stdin, out)
	}
	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	case "list", "show", "export", "add":
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Setup(firstNonEmpty(os.Getenv("LOG_LEVEL"), "warn"), "console"); err != nil {
		return err
	}
	ctx := context.Background()
	repo, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer repo.Close()

	switch cmd {
	case "list":
		return runList(ctx, cfg, repo, rest, out)
	case "show":
		return runShow(ctx, repo, rest, out)
	case "export":
		return runExport(ctx, repo, rest, out)
	default:
		return runAdd(ctx, cfg, repo, rest, out)
	}
}

func runExtract(args []string, stdin io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	summaryPath := fs.String("summary", "", "file holding a provider summary")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("extract needs exactly one input file (or - for stdin)")
	}
	text, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		return err
	}
	var providerSummary string
	if *summaryPath != "" {
		b, err := os.ReadFile(*summaryPath)
		if err != nil {
			return err
		}
		providerSummary = string(b)
	}
	res := extract.Process(text, providerSummary)
	if *asJSON {
		return writeJSON(out, res)
	}
	fmt.Fprintln(out, renderResult(res))
	return nil
}

func runList(ctx context.Context, cfg config.Config, repo store.Repository, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	tag := fs.String("tag", "", "only notes with a tag that sounds like this")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	svc := notes.New(nil, nil, repo, nil, notes.Options{MaxAudioBytes: cfg.MaxAudioBytes})
	var list []store.Note
	var err error
	if *tag != "" {
		list, err = svc.SearchByTag(ctx, *tag)
	} else {
		list, err = svc.List(ctx)
	}
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(out, list)
	}
	fmt.Fprintln(out, renderList(list))
	return nil
}

func runShow(ctx context.Context, repo store.Repository, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("show needs a note id")
	}
	n, err := repo.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(out, n)
	}
	fmt.Fprintln(out, renderNote(n))
	return nil
}

func runExport(ctx context.Context, repo store.Repository, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("export needs a note id and an output path")
	}
	n, err := repo.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if err := export.WriteDocx(n, args[1]); err != nil {
		return err
	}
	fmt.Fprintln(out, okStyle.Render("wrote "+args[1]))
	return nil
}

func runAdd(ctx context.Context, cfg config.Config, repo store.Repository, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("add needs one audio file")
	}
	audio, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	tr, err := provider.New(ctx, cfg.Provider)
	if err != nil {
		return err
	}
	svc := notes.New(tr, extract.Extractor{}, repo, nil, notes.Options{MaxAudioBytes: cfg.MaxAudioBytes})
	n, err := svc.FromAudio(ctx, audio, filepath.Base(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderNote(n))
	return nil
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
