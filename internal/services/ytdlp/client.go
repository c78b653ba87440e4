package ytdlp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"archivist/internal/services"
)

const component = "yt-dlp"

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary          string
	format          string
	mergeFormat     string
	requestTimeout  time.Duration
	downloadTimeout time.Duration
	exec            Executor
}

// Config holds the knobs the client needs from the service configuration.
type Config struct {
	Binary                 string
	Format                 string
	MergeFormat            string
	RequestTimeoutSeconds  int
	DownloadTimeoutSeconds int
}

// New constructs a yt-dlp client.
func New(cfg Config, opts ...Option) (*Client, error) {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary:          binary,
		format:          strings.TrimSpace(cfg.Format),
		mergeFormat:     strings.TrimSpace(cfg.MergeFormat),
		requestTimeout:  time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		downloadTimeout: time.Duration(cfg.DownloadTimeoutSeconds) * time.Second,
		exec:            commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Info is the subset of the yt-dlp info document the archive cares about.
type Info struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Duration     float64  `json:"duration"`
	UploadDate   string   `json:"upload_date"`
	Timestamp    int64    `json:"timestamp"`
	Thumbnail    string   `json:"thumbnail"`
	ChannelID    string   `json:"channel_id"`
	Channel      string   `json:"channel"`
	ChannelURL   string   `json:"channel_url"`
	Uploader     string   `json:"uploader"`
	UploaderID   string   `json:"uploader_id"`
	WebpageURL   string   `json:"webpage_url"`
	Availability string   `json:"availability"`
	LiveStatus   string   `json:"live_status"`
	ViewCount    int64    `json:"view_count"`
	Tags         []string `json:"tags"`
}

// PublishedAt returns the upload time, preferring the exact timestamp.
func (i *Info) PublishedAt() *time.Time {
	if i == nil {
		return nil
	}
	if i.Timestamp > 0 {
		ts := time.Unix(i.Timestamp, 0).UTC()
		return &ts
	}
	if len(i.UploadDate) == 8 {
		if ts, err := time.Parse("20060102", i.UploadDate); err == nil {
			return &ts
		}
	}
	return nil
}

// DownloadResult is what yt-dlp reported after moving the final file.
type DownloadResult struct {
	Path   string
	Format string
}

// Metadata fetches the info document for a single video.
func (c *Client) Metadata(ctx context.Context, url string) (*Info, error) {
	args := []string{"-J", "--skip-download", "--no-playlist", "--no-warnings", url}
	return c.info(ctx, "metadata", args)
}

// Channel fetches the channel-level info document without listing entries.
func (c *Client) Channel(ctx context.Context, url string) (*Info, error) {
	args := []string{"-J", "--flat-playlist", "--playlist-items", "0", "--no-warnings", url}
	return c.info(ctx, "channel", args)
}

func (c *Client) info(ctx context.Context, operation string, args []string) (*Info, error) {
	runCtx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()

	stdout, stderr, err := c.run(runCtx, args)
	if err != nil {
		return nil, classify(operation, stderr, err)
	}
	var info Info
	if err := json.Unmarshal([]byte(strings.Join(stdout, "\n")), &info); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, component, operation, "decode info json", err)
	}
	if info.ID == "" {
		return nil, services.Wrap(services.ErrNotFound, component, operation, "info document has no id", nil)
	}
	return &info, nil
}

// Download fetches url into dir using the output template, which is relative
// to dir. It returns the final merged file path reported by yt-dlp.
func (c *Client) Download(ctx context.Context, url, dir, outputTemplate string) (*DownloadResult, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, services.Wrap(services.ErrValidation, component, "download", "destination directory required", nil)
	}
	args := []string{"--no-playlist", "--no-progress", "--no-warnings", "--no-simulate"}
	if c.format != "" {
		args = append(args, "-f", c.format)
	}
	if c.mergeFormat != "" {
		args = append(args, "--merge-output-format", c.mergeFormat)
	}
	args = append(args,
		"-P", dir,
		"-o", outputTemplate,
		"--print", "after_move:%(filepath)s\t%(format_id)s",
		url,
	)

	runCtx, cancel := withTimeout(ctx, c.downloadTimeout)
	defer cancel()

	stdout, stderr, err := c.run(runCtx, args)
	if err != nil {
		return nil, classify("download", stderr, err)
	}
	for i := len(stdout) - 1; i >= 0; i-- {
		line := strings.TrimSpace(stdout[i])
		if line == "" {
			continue
		}
		path, format, _ := strings.Cut(line, "\t")
		return &DownloadResult{Path: path, Format: format}, nil
	}
	return nil, services.Wrap(services.ErrExternalTool, component, "download", "yt-dlp reported no output file", nil)
}

func (c *Client) run(ctx context.Context, args []string) ([]string, []string, error) {
	var (
		mu     sync.Mutex
		stdout []string
		stderr []string
	)
	err := c.exec.Run(ctx, c.binary, args,
		func(line string) {
			mu.Lock()
			stdout = append(stdout, line)
			mu.Unlock()
		},
		func(line string) {
			mu.Lock()
			stderr = append(stderr, line)
			mu.Unlock()
		},
	)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return stdout, stderr, err
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		// Info documents are printed on a single line and can be large.
		scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
		for scanner.Scan() {
			if forward != nil {
				forward(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout, onStdout)
	go scan(stderr, onStderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
