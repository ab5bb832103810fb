// Command dc-downloader downloads course and track content for offline use.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dcget/dc-downloader/internal/api"
	"github.com/dcget/dc-downloader/internal/config"
	"github.com/dcget/dc-downloader/internal/datacamp"
	"github.com/dcget/dc-downloader/internal/logger"
	"github.com/dcget/dc-downloader/internal/model"
	"github.com/dcget/dc-downloader/internal/session"
)

const usage = `Usage: dc-downloader <command> [options]

Commands:
  set-token <token>          Validate and store the session token
  courses                    List completed courses
  ongoing                    List enrolled (unfinished) courses
  tracks                     List completed tracks and their courses
  skill-tracks [filter]      List the skill-track catalog
  career-tracks [filter]     List the career-track catalog
  download <ids...>          Download courses/tracks by id, order number or tag
  download-skill-track <id>  Download a catalog track by its id
  reset                      Forget the session and cached content
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	settings, err := config.Load(os.Getenv("DC_CONFIG_FILE"))
	if err != nil {
		return err
	}
	log, err := logger.New(settings.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(settings.SessionFile, log)
	service := datacamp.NewService(store, log)

	command, rest := args[0], args[1:]
	switch command {
	case "set-token":
		return setToken(ctx, service, rest)
	case "courses":
		return listCourses(ctx, service, false)
	case "ongoing":
		return listCourses(ctx, service, true)
	case "tracks":
		return listTracks(ctx, service)
	case "skill-tracks":
		return listCatalog(ctx, service, service.SkillTracks, rest)
	case "career-tracks":
		return listCatalog(ctx, service, service.CareerTracks, rest)
	case "download":
		return download(ctx, service, settings.Download, rest)
	case "download-skill-track":
		return downloadSkillTrack(ctx, service, settings.Download, rest)
	case "reset":
		return service.Reset()
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}

func setToken(ctx context.Context, service *datacamp.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dc-downloader set-token <token>")
	}
	details, err := service.SetToken(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Hi, %s!\n", details.DisplayName())
	if !details.HasSubscription() {
		fmt.Println("Note: no active subscription was found on this account.")
	}
	return nil
}

func listCourses(ctx context.Context, service *datacamp.Service, ongoing bool) error {
	var courses []*model.Course
	var err error
	if ongoing {
		courses, err = service.EnrolledCourses(ctx)
	} else {
		courses, err = service.CompletedCourses(ctx)
	}
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		fmt.Println("No courses found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tTitle\tDuration")
	for _, course := range courses {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", course.Order, course.ID, course.Title, course.TimeNeeded)
	}
	return w.Flush()
}

func listTracks(ctx context.Context, service *datacamp.Service) error {
	tracks, err := service.CompletedTracks(ctx)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Println("No tracks found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, track := range tracks {
		fmt.Fprintf(w, "%s\t%s\t\n", track.ID, track.Title)
		for _, course := range track.Courses {
			fmt.Fprintf(w, "  %d\t%d\t%s\n", course.Order, course.ID, course.Title)
		}
	}
	return w.Flush()
}

func listCatalog(ctx context.Context, _ *datacamp.Service,
	fetch func(context.Context, string) ([]api.CatalogTrack, error), args []string) error {
	filter := "all"
	if len(args) > 0 {
		filter = args[0]
	}
	tracks, err := fetch(ctx, filter)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Println("No tracks found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTitle\tCourses\tDuration")
	for _, track := range tracks {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", track.ID, track.Title, track.CourseCount, track.TimeNeeded)
	}
	return w.Flush()
}

// downloadFlags applies the download-related command line options on top of
// the configured defaults.
func downloadFlags(name string, defaults config.DownloadOptions) (*flag.FlagSet, *config.DownloadOptions, *string, *string) {
	opts := defaults
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("path", ".", "target directory")
	fs.BoolVar(&opts.Slides, "slides", opts.Slides, "download chapter slides")
	fs.BoolVar(&opts.Datasets, "datasets", opts.Datasets, "download course datasets")
	fs.BoolVar(&opts.Videos, "videos", opts.Videos, "download lecture videos")
	fs.BoolVar(&opts.Exercises, "exercises", opts.Exercises, "download exercises")
	fs.BoolVar(&opts.Audios, "audios", opts.Audios, "download lecture audio")
	fs.BoolVar(&opts.Scripts, "scripts", opts.Scripts, "download video transcripts")
	fs.BoolVar(&opts.LastAttempt, "last-attempt", opts.LastAttempt, "save your last submitted solutions")
	fs.BoolVar(&opts.Overwrite, "overwrite", opts.Overwrite, "overwrite existing files")
	fs.IntVar(&opts.MaxParallel, "max-parallel", opts.MaxParallel, "parallel dataset transfers")
	fs.IntVar(&opts.MaxRetries, "max-retries", opts.MaxRetries, "attempts per file")
	subtitles := fs.String("subtitles", strings.Join(opts.Subtitles, ","), "subtitle language codes, comma separated")
	return fs, &opts, path, subtitles
}

func parseSubtitles(raw string) []string {
	if raw == "" {
		return nil
	}
	var codes []string
	for _, code := range strings.Split(raw, ",") {
		code = strings.TrimSpace(code)
		if code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func download(ctx context.Context, service *datacamp.Service, defaults config.DownloadOptions, args []string) error {
	fs, opts, path, subtitles := downloadFlags("download", defaults)
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts.Subtitles = parseSubtitles(*subtitles)
	tokens := fs.Args()
	if len(tokens) == 0 {
		return fmt.Errorf("usage: dc-downloader download [options] <ids...>")
	}
	return service.Download(ctx, tokens, *path, *opts)
}

func downloadSkillTrack(ctx context.Context, service *datacamp.Service, defaults config.DownloadOptions, args []string) error {
	fs, opts, path, subtitles := downloadFlags("download-skill-track", defaults)
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts.Subtitles = parseSubtitles(*subtitles)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dc-downloader download-skill-track [options] <id>")
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid track id %q", fs.Arg(0))
	}
	return service.DownloadSkillTrack(ctx, id, *path, *opts)
}
