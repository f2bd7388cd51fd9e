// Package provider defines the external capabilities the chat service calls
// out to: text generation and speech synthesis. Implementations live in
// sub-packages and are selected by configuration.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/sonnes/lekhak/core"
)

// Generator produces an answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Audio is synthesized speech.
type Audio struct {
	Data     []byte
	Encoding string // e.g. "MP3"
}

// Synthesizer converts text to speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, text string) (*Audio, error)

// Synthesize implements Synthesizer.
func (f SynthesizerFunc) Synthesize(ctx context.Context, text string) (*Audio, error) {
	return f(ctx, text)
}

// Voice selects the synthesized voice. Empty fields use the provider's
// defaults.
type Voice struct {
	LanguageCode string
	Name         string
	Gender       string // MALE, FEMALE, NEUTRAL
	Encoding     string // MP3, LINEAR16, OGG_OPUS, ...
}

// WithTimeout bounds every call to g by d. A call that runs out of time
// fails with a retryable *core.ProviderError.
func WithTimeout(g Generator, name string, d time.Duration) Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return call(ctx, name, "generate", d, func(ctx context.Context) (string, error) {
			return g.Generate(ctx, prompt)
		})
	})
}

// SynthesizerWithTimeout bounds every call to s by d.
func SynthesizerWithTimeout(s Synthesizer, name string, d time.Duration) Synthesizer {
	return SynthesizerFunc(func(ctx context.Context, text string) (*Audio, error) {
		return call(ctx, name, "synthesize", d, func(ctx context.Context) (*Audio, error) {
			return s.Synthesize(ctx, text)
		})
	})
}

func call[T any](ctx context.Context, name, op string, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	v, err := fn(ctx)
	if err == nil {
		return v, nil
	}

	var zero T
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return zero, &core.ProviderError{Provider: name, Op: op, Retryable: true, Err: err}
	}
	var pe *core.ProviderError
	if errors.As(err, &pe) {
		return zero, err
	}
	return zero, &core.ProviderError{Provider: name, Op: op, Err: err}
}
