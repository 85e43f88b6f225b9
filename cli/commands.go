package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/topicseg/caption"
	cfg "github.com/maastricht-university/topicseg/config"
	"github.com/maastricht-university/topicseg/gloss"
	"github.com/maastricht-university/topicseg/orchestrator"
	"github.com/maastricht-university/topicseg/output"
	"github.com/maastricht-university/topicseg/server"
	"github.com/maastricht-university/topicseg/topics"
	"github.com/maastricht-university/topicseg/transcript"
)

// readInput reads path, or stdin for "-" or "". JSON payloads are decoded
// as any accepted transcript shape; anything else is plain text. Caption
// files are parsed by extension.
func readInput(cmd *cobra.Command, path string) (transcript.Input, error) {
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".srt", ".vtt":
			f, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			segs, err := caption.ParseFile(f, ext)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			return transcript.Records(segs), nil
		}
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if json.Valid(b) {
		return transcript.DecodeInput(b)
	}
	return transcript.PlainText(b), nil
}

func (a *app) cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [file|-]",
		Short: "Normalize a transcript into cleaned text and sentences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			doc, err := p.Clean(in)
			if err != nil {
				return err
			}
			return a.emit(doc)
		},
	}
}

type fileResult struct {
	File     string         `json:"file" yaml:"file"`
	Strategy topics.Kind    `json:"strategy" yaml:"strategy"`
	Topics   []topics.Topic `json:"topics" yaml:"topics"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
}

type batch []fileResult

// Markdown implements output.Markdowner.
func (b batch) Markdown() string {
	var sb strings.Builder
	for _, r := range b {
		sb.WriteString(output.RenderMarkdown(output.Metadata{Title: r.File, Strategy: string(r.Strategy)}, r.Topics))
	}
	return sb.String()
}

func (a *app) segmentCmd() *cobra.Command {
	var (
		numTopics int
		strategy  string
		globs     []string
		withGloss bool
	)
	cmd := &cobra.Command{
		Use:   "segment [file...]",
		Short: "Segment transcripts into topics",
		Long:  "Segment transcripts into topics. Reads stdin without files; --glob adds files matching ** patterns.",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := optionalKind(strategy)
			if err != nil {
				return err
			}
			files, err := expandFiles(args, globs)
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}

			run := func(path string) (topics.Result, error) {
				in, err := readInput(cmd, path)
				if err != nil {
					return topics.Result{}, err
				}
				doc, err := p.Clean(in)
				if err != nil {
					return topics.Result{}, err
				}
				res := p.Segment(cmd.Context(), doc, numTopics, kind)
				if withGloss {
					res.Topics = gloss.ConvertTopics(res.Topics)
				}
				return res, nil
			}

			if len(files) == 0 {
				res, err := run("-")
				if err != nil {
					return err
				}
				if res.Failed() {
					a.log.WithError(res.Err).Warn("segmentation degraded")
				}
				return a.emit(res)
			}

			prog := newProgress(defaultProgressEnabled() && len(files) > 1, len(files))
			out := make(batch, 0, len(files))
			for _, f := range files {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				res, err := run(f)
				r := fileResult{File: f, Strategy: res.Strategy, Topics: res.Topics}
				switch {
				case err != nil:
					r.Error = err.Error()
				case res.Failed():
					r.Error = res.Err.Error()
				}
				if r.Error != "" {
					a.log.WithField("file", f).Warn(r.Error)
				}
				out = append(out, r)
				prog.Increment()
			}
			prog.Finish()
			return a.emit(out)
		},
	}
	cmd.Flags().IntVarP(&numTopics, "num-topics", "k", 0, "number of topics (0 derives it from transcript length)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "statistical or remote-llm (default segment.strategy)")
	cmd.Flags().StringArrayVar(&globs, "glob", nil, "include files matching a doublestar pattern, e.g. 'captions/**/*.srt'")
	cmd.Flags().BoolVar(&withGloss, "gloss", false, "add gloss to each topic")
	return cmd
}

func (a *app) fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <video-url>",
		Short: "Fetch the caption track of a YouTube video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			tr, err := p.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(tr)
		},
	}
}

func (a *app) glossCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "gloss [text...]",
		Short: "Convert text to simplified gloss notation",
		Annotations: map[string]string{
			"skip-config": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if file != "" || len(args) == 0 {
				var (
					b   []byte
					err error
				)
				if file == "" || file == "-" {
					b, err = io.ReadAll(cmd.InOrStdin())
				} else {
					b, err = os.ReadFile(file)
				}
				if err != nil {
					return err
				}
				text = string(b)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("text is required")
			}
			_, err := fmt.Fprintln(a.out, gloss.Convert(text))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from file (- for stdin)")
	return cmd
}

func (a *app) processCmd() *cobra.Command {
	var (
		numTopics int
		strategy  string
		noGloss   bool
		outputs   string
	)
	cmd := &cobra.Command{
		Use:   "process <video-url>",
		Short: "Fetch, clean, segment and gloss one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := optionalKind(strategy)
			if err != nil {
				return err
			}
			if outputs != "" {
				a.conf.Paths.Outputs = outputs
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			done := startSpinner(defaultProgressEnabled(), "processing")
			rep, err := p.Process(cmd.Context(), orchestrator.Request{
				VideoURL:  args[0],
				NumTopics: numTopics,
				Strategy:  kind,
				Gloss:     !noGloss,
			})
			done()
			if err != nil {
				return err
			}
			return a.emit(rep)
		},
	}
	cmd.Flags().IntVarP(&numTopics, "num-topics", "k", 0, "number of topics (0 derives it from transcript length)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "statistical or remote-llm (default segment.strategy)")
	cmd.Flags().BoolVar(&noGloss, "no-gloss", false, "skip gloss conversion")
	cmd.Flags().StringVar(&outputs, "outputs", "", "export the report under this directory (overrides paths.outputs)")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.conf.Server.Addr
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			srv := server.New(p, a.log)

			errc := make(chan error, 1)
			go func() { errc <- srv.Listen(addr) }()
			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
				a.log.Info("shutting down")
				return srv.Shutdown()
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

func configCmd() *cobra.Command {
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := firstArg(args)
			if path == "" || path == "-" {
				return cfg.WriteTemplate(cmd.OutOrStdout())
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists; use --force to overwrite", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := cfg.WriteTemplate(f); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage configuration",
		Annotations: map[string]string{"skip-config": "true"},
	}
	initCmd.Annotations = map[string]string{"skip-config": "true"}
	cmd.AddCommand(initCmd)
	return cmd
}

// expandFiles merges explicit paths with doublestar matches, dropping duplicates.
func expandFiles(args, globs []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, a := range args {
		add(a)
	}
	for _, g := range globs {
		matches, err := doublestar.FilepathGlob(g, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", g, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func optionalKind(s string) (topics.Kind, error) {
	if s == "" {
		return "", nil
	}
	return topics.ParseKind(s)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
