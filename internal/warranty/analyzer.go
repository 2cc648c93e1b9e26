// Package warranty drives the multi-image analysis flow: validate each
// populated image slot, compress it, assemble one multipart request, and
// POST it to the analysis endpoint with the client's retry policy.
package warranty

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/snapregister/snapregister/internal/api"
	"github.com/snapregister/snapregister/internal/imageprep"
	"github.com/snapregister/snapregister/internal/upload"
)

// AnalyzeEndpoint is the multi-image analysis route, relative to the API base.
const AnalyzeEndpoint = "/warranty/analyze"

// Options tunes image preprocessing. Zero values use the imageprep defaults.
type Options struct {
	MaxDimension   int
	Quality        float64
	MaxUploadBytes int64
}

// Analyzer runs the upload-and-analyze flow. Each Analyze call is
// independent: overlapping calls are neither coalesced nor cancelled, and
// callers that need at-most-one-in-flight must serialize themselves.
type Analyzer struct {
	client *api.Client
	opts   Options
	logger *slog.Logger
}

func NewAnalyzer(client *api.Client, opts Options) *Analyzer {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = imageprep.MaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 1 {
		opts.Quality = imageprep.DefaultQuality
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = imageprep.MaxUploadBytes
	}
	return &Analyzer{client: client, opts: opts, logger: slog.Default()}
}

// Analyze processes the populated slots in fixed order and returns a
// structured Result; it never panics up to the caller. progress, when
// non-nil, receives strictly increasing percentages: up to 40 during
// validation and compression, 50 once the request body is assembled, 90 once
// a response arrives, and 100 exactly once on success.
func (a *Analyzer) Analyze(ctx context.Context, slots Slots, progress func(percent int)) Result {
	report := progressReporter(progress)

	populated := slots.Populated()
	if len(populated) == 0 {
		return fail("at least one image is required")
	}

	// Validation covers every populated slot before anything is uploaded;
	// one bad file aborts the whole run with the slot named.
	for i, slot := range populated {
		if err := imageprep.Validate(slots.path(slot), a.opts.MaxUploadBytes); err != nil {
			return fail(fmt.Sprintf("%s image: %v", slot, err))
		}
		report(20 * (i + 1) / len(populated))
	}

	// Compression failures degrade to the original file rather than
	// aborting; the temp copies are removed once the request is built.
	compressed := make(map[Slot]string, len(populated))
	for i, slot := range populated {
		original := slots.path(slot)
		path := imageprep.Compress(original, a.opts.MaxDimension, a.opts.Quality)
		if path != original {
			defer os.Remove(path)
		}
		compressed[slot] = path
		report(20 + 20*(i+1)/len(populated))
	}

	parts := make([]upload.Part, 0, len(populated))
	for _, slot := range populated {
		parts = append(parts, upload.Part{Field: slot.PartName(), Path: compressed[slot]})
	}
	body, err := upload.BuildBody(parts, nil)
	if err != nil {
		return fail(fmt.Sprintf("building upload request: %v", err))
	}
	report(50)

	resp, err := a.client.Post(ctx, AnalyzeEndpoint, body, nil)
	if err != nil {
		return fail(err.Error())
	}
	report(90)

	var env envelope
	if err := resp.Decode(&env); err != nil {
		return fail(fmt.Sprintf("unexpected analysis response: %v", err))
	}
	if !env.Success {
		// Application-level failure on a 2xx response: terminal, never
		// retried.
		msg := env.Error
		if msg == "" {
			msg = "analysis failed"
		}
		return fail(msg)
	}

	uploaded := make(map[Slot]bool, len(slotOrder))
	for _, slot := range slotOrder {
		uploaded[slot] = false
	}
	for _, slot := range populated {
		uploaded[slot] = true
	}

	a.logger.Debug("analysis complete", "slots", len(populated), "confidence", confidenceOf(env.Data))

	report(100)
	return Result{Success: true, Data: env.Data, Uploaded: uploaded}
}

func confidenceOf(a *Analysis) string {
	if a == nil {
		return ""
	}
	return a.Confidence
}

func fail(msg string) Result {
	return Result{Success: false, Err: msg}
}

// progressReporter wraps the caller's callback so reported values are
// strictly increasing; duplicate and backward updates are dropped.
func progressReporter(fn func(int)) func(int) {
	if fn == nil {
		return func(int) {}
	}
	last := -1
	return func(p int) {
		if p <= last {
			return
		}
		last = p
		fn(p)
	}
}
