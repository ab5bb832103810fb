package download

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/dcget/dc-downloader/internal/api"
	"github.com/dcget/dc-downloader/internal/config"
	"github.com/dcget/dc-downloader/internal/logger"
	"github.com/dcget/dc-downloader/internal/model"
	"github.com/dcget/dc-downloader/internal/platform"
)

// maxSubexerciseDepth bounds subexercise recursion. Real content nests one
// level; anything deeper is a broken payload.
const maxSubexerciseDepth = 8

// ContentFetcher supplies the per-chapter content the pipeline walks.
type ContentFetcher interface {
	FetchExercise(ctx context.Context, id int) (*model.Exercise, error)
	FetchVideo(ctx context.Context, hash string) (*model.Video, error)
	FetchExerciseIDs(ctx context.Context, courseID, chapterID int) ([]int, error)
	FetchLastAttempts(ctx context.Context, courseID, chapterID int) (map[int]string, error)
}

// AssetDownloader transfers one remote asset to a local path.
type AssetDownloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Pipeline walks a course's content tree and persists the selected asset
// types under a deterministic directory layout.
type Pipeline struct {
	fetcher ContentFetcher
	files   AssetDownloader
	log     *logger.Logger
}

// NewPipeline creates a pipeline over the given fetcher and downloader.
func NewPipeline(fetcher ContentFetcher, files AssetDownloader, log *logger.Logger) *Pipeline {
	return &Pipeline{fetcher: fetcher, files: files, log: log}
}

// DownloadTrack persists every course of the track under a directory named
// after the track title. Courses get 1-based numeric directory prefixes in
// track order.
func (p *Pipeline) DownloadTrack(ctx context.Context, track *model.Track, basePath string, opts config.DownloadOptions) error {
	trackDir := filepath.Join(basePath, platform.SanitizePath(track.Title))
	for i, course := range track.Courses {
		prefix := fmt.Sprintf("%d-", i+1)
		if err := p.DownloadCourse(ctx, course, trackDir, prefix, opts); err != nil {
			return err
		}
	}
	return nil
}

// DownloadCourse persists one course under basePath. indexPrefix, when not
// empty, is prepended to the course directory name. Individual asset
// failures are logged and skipped; only context cancellation and filesystem
// failures abort the walk.
func (p *Pipeline) DownloadCourse(ctx context.Context, course *model.Course, basePath, indexPrefix string, opts config.DownloadOptions) error {
	name := course.Slug
	if name == "" {
		name = platform.Slugify(course.Title)
	}
	courseDir := filepath.Join(basePath, indexPrefix+platform.SanitizePath(name))
	if err := platform.EnsureDir(courseDir); err != nil {
		return fmt.Errorf("create course directory: %w", err)
	}
	p.log.Info("downloading course", "title", course.Title, "path", courseDir)

	if _, err := platform.SaveText(filepath.Join(courseDir, "README.txt"), model.FormatCourseMetadata(course), opts.Overwrite); err != nil {
		return err
	}

	if opts.Datasets && len(course.Datasets) > 0 {
		if err := p.downloadDatasets(ctx, course.Datasets, courseDir, opts); err != nil {
			return err
		}
	}

	for i := range course.Chapters {
		if err := p.downloadChapter(ctx, course, &course.Chapters[i], courseDir, opts); err != nil {
			return err
		}
	}
	return nil
}

// downloadDatasets transfers the course datasets, up to MaxParallel at a
// time. Dataset filenames come from the asset URL.
func (p *Pipeline) downloadDatasets(ctx context.Context, datasets []model.Dataset, courseDir string, opts config.DownloadOptions) error {
	dir := filepath.Join(courseDir, "datasets")
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(opts.MaxParallel)
	for _, dataset := range datasets {
		if dataset.AssetURL == "" {
			continue
		}
		dataset := dataset
		group.Go(func() error {
			dest := filepath.Join(dir, platform.URLBasename(dataset.AssetURL))
			if err := p.files.Download(ctx, dataset.AssetURL, dest); err != nil {
				p.log.Warn("dataset download failed", "name", dataset.Name, "error", err)
			}
			return ctx.Err()
		})
	}
	return group.Wait()
}

// chapterDirName derives the chapter directory name. Chapters with both a
// title and a meta title use the remote slug; titled chapters fall back to
// chapter-N-<slugified-title>; bare chapters to chapter-N.
func chapterDirName(ch *model.Chapter) string {
	if ch.Title != "" && ch.TitleMeta != "" && ch.Slug != "" {
		return platform.SanitizePath(ch.Slug)
	}
	if ch.Title != "" {
		return fmt.Sprintf("chapter-%d-%s", ch.Number, platform.Slugify(ch.Title))
	}
	return fmt.Sprintf("chapter-%d", ch.Number)
}

// downloadChapter walks one chapter. Exercises are processed strictly in
// remote order because the practice and video counters derive file names
// from positions within the chapter.
func (p *Pipeline) downloadChapter(ctx context.Context, course *model.Course, ch *model.Chapter, courseDir string, opts config.DownloadOptions) error {
	chapterDir := filepath.Join(courseDir, chapterDirName(ch))
	if err := platform.EnsureDir(chapterDir); err != nil {
		return fmt.Errorf("create chapter directory: %w", err)
	}

	if opts.Slides && ch.SlidesLink != "" {
		dest := filepath.Join(chapterDir, platform.URLBasename(ch.SlidesLink))
		if err := p.files.Download(ctx, ch.SlidesLink, dest); err != nil {
			p.log.Warn("slides download failed", "chapter", ch.Number, "error", err)
		}
	}

	needExercises := opts.Exercises || opts.Videos || opts.Audios || opts.Scripts || len(opts.Subtitles) > 0
	if !needExercises {
		return nil
	}

	ids, err := p.fetcher.FetchExerciseIDs(ctx, course.ID, ch.ID)
	if err != nil {
		p.log.Warn("chapter content unavailable", "chapter", ch.Number, "error", err)
		return nil
	}

	var attempts map[int]string
	if opts.LastAttempt {
		attempts, err = p.fetcher.FetchLastAttempts(ctx, course.ID, ch.ID)
		if err != nil {
			p.log.Warn("last attempts unavailable", "chapter", ch.Number, "error", err)
			attempts = nil
		}
	}

	practiceCount, videoCount := 0, 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		exercise, err := p.fetcher.FetchExercise(ctx, id)
		if err != nil {
			p.log.Warn("exercise fetch failed", "id", id, "error", err)
			continue
		}
		exercise.LastAttempt = attempts[exercise.ID]
		if exercise.IsVideo() {
			videoCount++
			if err := p.persistVideo(ctx, exercise, ch, chapterDir, videoCount, opts); err != nil {
				return err
			}
			continue
		}
		practiceCount++
		if !opts.Exercises {
			continue
		}
		name := fmt.Sprintf("ex%d", practiceCount)
		exercisesDir := filepath.Join(chapterDir, "exercises")
		if err := p.persistExercise(ctx, exercise, exercisesDir, name, attempts, opts, 0); err != nil {
			if api.IsMalformed(err) {
				p.log.Warn("exercise skipped", "id", id, "error", err)
				continue
			}
			return err
		}
	}
	return nil
}

// persistExercise writes the exercise markdown, its last attempt when one
// exists and recursively its subexercises as <name>_sub<i>, all under the
// chapter's exercises directory.
func (p *Pipeline) persistExercise(ctx context.Context, exercise *model.Exercise, dir, name string, attempts map[int]string, opts config.DownloadOptions, depth int) error {
	if depth > maxSubexerciseDepth {
		return &api.MalformedError{Kind: "exercise", Reason: "subexercise nesting too deep"}
	}

	if _, err := platform.SaveText(filepath.Join(dir, name+".md"), exercise.Markdown(), opts.Overwrite); err != nil {
		return err
	}

	if opts.LastAttempt && exercise.LastAttempt != "" {
		if ext := exercise.CodeExtension(); ext != "" {
			if _, err := platform.SaveText(filepath.Join(dir, name+ext), exercise.LastAttempt, opts.Overwrite); err != nil {
				return err
			}
		}
	}

	for i, subID := range exercise.SubexerciseIDs {
		sub, err := p.fetcher.FetchExercise(ctx, subID)
		if err != nil {
			p.log.Warn("subexercise fetch failed", "id", subID, "error", err)
			continue
		}
		sub.LastAttempt = attempts[sub.ID]
		subName := fmt.Sprintf("%s_sub%d", name, i+1)
		if err := p.persistExercise(ctx, sub, dir, subName, attempts, opts, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// persistVideo resolves the video entity behind a video exercise and saves
// the selected media next to the chapter, named ch<chapter>_<n>.
func (p *Pipeline) persistVideo(ctx context.Context, exercise *model.Exercise, ch *model.Chapter, chapterDir string, n int, opts config.DownloadOptions) error {
	wantMedia := opts.Videos || opts.Audios || opts.Scripts || len(opts.Subtitles) > 0
	if !wantMedia || exercise.ProjectorKey == "" {
		return nil
	}

	video, err := p.fetcher.FetchVideo(ctx, exercise.ProjectorKey)
	if err != nil {
		p.log.Warn("video fetch failed", "key", exercise.ProjectorKey, "error", err)
		return nil
	}

	stem := fmt.Sprintf("ch%d_%d", ch.Number, n)
	if opts.Videos && video.MP4Link != "" {
		dest := filepath.Join(chapterDir, "videos", stem+".mp4")
		if err := p.files.Download(ctx, video.MP4Link, dest); err != nil {
			p.log.Warn("video download failed", "name", stem, "error", err)
		}
	}
	if opts.Audios && video.AudioLink != "" {
		dest := filepath.Join(chapterDir, "audios", stem+".mp3")
		if err := p.files.Download(ctx, video.AudioLink, dest); err != nil {
			p.log.Warn("audio download failed", "name", stem, "error", err)
		}
	}
	if opts.Scripts && video.ScriptLink != "" {
		dest := filepath.Join(chapterDir, "scripts", stem+"_script.md")
		if err := p.files.Download(ctx, video.ScriptLink, dest); err != nil {
			p.log.Warn("script download failed", "name", stem, "error", err)
		}
	}
	for _, code := range opts.Subtitles {
		language, ok := config.SubtitleLanguages[code]
		if !ok {
			continue
		}
		subtitle := video.SubtitleByLanguage(language)
		if subtitle == nil {
			continue
		}
		dest := filepath.Join(chapterDir, "videos", fmt.Sprintf("%s_%s.vtt", stem, code))
		if err := p.files.Download(ctx, subtitle.Link, dest); err != nil {
			p.log.Warn("subtitle download failed", "name", stem, "language", code, "error", err)
		}
	}
	return ctx.Err()
}
