package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	productbooth "github.com/menta2k/product-booth"
	"github.com/menta2k/product-booth/pkg/analysis"
	"github.com/menta2k/product-booth/pkg/camera"
)

const shootHelp = `Enter          take a photo
a              take a photo and analyze it
r <n>          re-analyze photo n
d <n>          delete photo n
t <n> <title>  edit the title of photo n
c <n>          print the title of photo n for copying
C              print every title
s              write every photo to the output directory
z <file>       write every photo into a zip archive
x              clear the session
l              list photos
?              this help
q              quit`

type shootAction int

const (
	actCapture shootAction = iota
	actCaptureAnalyze
	actReanalyze
	actDelete
	actEditTitle
	actCopyTitle
	actCopyAll
	actDownloadAll
	actZip
	actClear
	actList
	actHelp
	actQuit
)

type shootCommand struct {
	action shootAction
	pos    int // 1-based photo position, newest first
	arg    string
}

var errUnknownCommand = errors.New("unknown command, ? for help")

// parseShootCommand reads one interactive line
func parseShootCommand(line string) (shootCommand, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return shootCommand{action: actCapture}, nil
	}

	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "a":
		return shootCommand{action: actCaptureAnalyze}, nil
	case "C":
		return shootCommand{action: actCopyAll}, nil
	case "s":
		return shootCommand{action: actDownloadAll}, nil
	case "x":
		return shootCommand{action: actClear}, nil
	case "l":
		return shootCommand{action: actList}, nil
	case "?", "h":
		return shootCommand{action: actHelp}, nil
	case "q":
		return shootCommand{action: actQuit}, nil
	case "z":
		if rest == "" {
			return shootCommand{}, fmt.Errorf("usage: z <file>")
		}
		return shootCommand{action: actZip, arg: rest}, nil
	case "r", "d", "c", "t":
		posText, arg, _ := strings.Cut(rest, " ")
		pos, err := strconv.Atoi(posText)
		if err != nil || pos < 1 {
			return shootCommand{}, fmt.Errorf("usage: %s <n>", verb)
		}
		cmd := shootCommand{pos: pos, arg: strings.TrimSpace(arg)}
		switch verb {
		case "r":
			cmd.action = actReanalyze
		case "d":
			cmd.action = actDelete
		case "c":
			cmd.action = actCopyTitle
		case "t":
			if cmd.arg == "" {
				return shootCommand{}, fmt.Errorf("usage: t <n> <title>")
			}
			cmd.action = actEditTitle
		}
		return cmd, nil
	}
	return shootCommand{}, errUnknownCommand
}

// shooter runs the interactive loop against a booth and an open stream
type shooter struct {
	booth   *productbooth.Booth
	stream  camera.Stream
	trigger *productbooth.Trigger

	mu  sync.Mutex // guards out
	out io.Writer
}

func (s *shooter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *shooter) onEvent(e productbooth.Event) {
	switch e.Kind {
	case productbooth.EventAnalyzed:
		s.mu.Lock()
		fmt.Fprintf(s.out, "analysis ready for %s\n", e.Photo.Filename)
		printResult(s.out, "    ", e.Photo.Analysis)
		s.mu.Unlock()
	case productbooth.EventAnalysisFailed:
		s.printf("%s: %s\n", e.Photo.Filename, analysis.Message(e.Err))
	case productbooth.EventDownloaded:
		s.printf("saved %s\n", e.Path)
	case productbooth.EventDownloadFailed:
		s.printf("could not save %s: %v\n", e.Photo.Filename, e.Err)
	}
}

// run processes commands from in until q, EOF, or ctx is done
func (s *shooter) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		cmd, err := parseShootCommand(scanner.Text())
		if err != nil {
			s.printf("%v\n", err)
			continue
		}
		if cmd.action == actQuit {
			return nil
		}
		if err := s.exec(ctx, cmd); err != nil {
			s.printf("%v\n", err)
		}
	}
}

func (s *shooter) exec(ctx context.Context, cmd shootCommand) error {
	switch cmd.action {
	case actCapture, actCaptureAnalyze:
		if !s.trigger.Allow() {
			log.Debug().Msg("capture trigger debounced")
			return nil
		}
		photo, err := s.booth.Capture(ctx, s.stream, cmd.action == actCaptureAnalyze)
		if err != nil {
			return err
		}
		s.printf("captured %s\n", photo.Filename)
		return nil

	case actCopyAll:
		titles := s.booth.Titles()
		if len(titles) == 0 {
			return fmt.Errorf("no titles yet")
		}
		s.printf("%s\n", joinTitles(titles))
		return nil

	case actDownloadAll:
		paths, err := s.booth.DownloadAll()
		if err != nil {
			return err
		}
		s.printf("wrote %d photos\n", len(paths))
		return nil

	case actZip:
		if err := s.booth.DownloadZip(cmd.arg); err != nil {
			return err
		}
		s.printf("wrote %s\n", cmd.arg)
		return nil

	case actClear:
		s.printf("cleared %d photos\n", s.booth.Clear())
		return nil

	case actList:
		s.mu.Lock()
		printSession(s.out, s.booth.Photos())
		s.mu.Unlock()
		return nil

	case actHelp:
		s.printf("%s\n", shootHelp)
		return nil
	}

	photo, ok := s.booth.At(cmd.pos - 1)
	if !ok {
		return fmt.Errorf("no photo %d", cmd.pos)
	}

	switch cmd.action {
	case actReanalyze:
		return s.booth.Analyze(photo.ID)
	case actDelete:
		s.booth.Remove(photo.ID)
		s.printf("deleted %s\n", photo.Filename)
	case actEditTitle:
		return s.booth.EditTitle(photo.ID, cmd.arg)
	case actCopyTitle:
		if photo.Analysis == nil || photo.Analysis.Title == "" {
			return fmt.Errorf("photo %d has no title", cmd.pos)
		}
		s.printf("%s\n", photo.Analysis.Title)
	}
	return nil
}

func newShootCmd(a *app) *cobra.Command {
	var device, tier string
	var remember bool

	cmd := &cobra.Command{
		Use:   "shoot",
		Short: "Interactive capture session",
		Long: "Interactive capture session. Commands are read one per line:\n\n" + shootHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.tier(tier)
			if err != nil {
				return err
			}

			sh := &shooter{
				out:     cmd.OutOrStdout(),
				trigger: productbooth.NewTrigger(a.cfg.Cooldown()),
			}

			b, err := productbooth.New(a.cfg,
				productbooth.WithAPIKey(a.apiKey()),
				productbooth.WithNotify(sh.onEvent),
			)
			if err != nil {
				return err
			}
			defer b.Close()
			sh.booth = b

			ctx := cmd.Context()
			reg := productbooth.NewDeviceRegistry(a.cfg.Camera, nil)
			dev, stream, err := productbooth.OpenCamera(ctx, reg, a.deviceID(device), t)
			if err != nil {
				return err
			}
			defer stream.Close()
			sh.stream = stream
			if remember {
				if err := a.remember(device, dev.ID(), tier, t); err != nil {
					return err
				}
			}

			w, h := stream.Size()
			sh.printf("%s ready at %dx%d. Enter takes a photo, ? for help.\n", dev.ID(), w, h)
			if !b.CanAnalyze() {
				sh.printf("no API key set; analysis is disabled\n")
			}

			if err := sh.run(ctx, cmd.InOrStdin()); err != nil {
				return err
			}
			b.Wait()
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "camera device ID")
	cmd.Flags().StringVar(&tier, "tier", "", "resolution tier: fast, balanced, quality")
	cmd.Flags().BoolVar(&remember, "remember", false, "save --device and --tier as the defaults")
	return cmd
}
