// Package googletts synthesizes speech with Google Cloud Text-to-Speech.
package googletts

import (
	"context"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/provider"
	"google.golang.org/api/option"
)

const name = "googletts"

// Synthesizer implements provider.Synthesizer.
type Synthesizer struct {
	voice      *texttospeechpb.VoiceSelectionParams
	audio      *texttospeechpb.AudioConfig
	encoding   string
	synthesize func(context.Context, *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)
	close      func() error
	logger     *log.Logger
}

// New creates a Synthesizer speaking with voice. credentialsFile may be
// empty to use application default credentials.
func New(ctx context.Context, voice provider.Voice, credentialsFile string, logger *log.Logger) (*Synthesizer, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("googletts: create client: %w", err)
	}

	s, err := newSynthesizer(voice, logger, func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
		return client.SynthesizeSpeech(ctx, req)
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	s.close = client.Close
	return s, nil
}

func newSynthesizer(
	voice provider.Voice,
	logger *log.Logger,
	fn func(context.Context, *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error),
) (*Synthesizer, error) {
	gender, err := ParseGender(voice.Gender)
	if err != nil {
		return nil, err
	}
	encoding, err := ParseEncoding(voice.Encoding)
	if err != nil {
		return nil, err
	}
	lang := voice.LanguageCode
	if lang == "" {
		lang = "en-US"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Synthesizer{
		voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: lang,
			Name:         voice.Name,
			SsmlGender:   gender,
		},
		audio:      &texttospeechpb.AudioConfig{AudioEncoding: encoding},
		encoding:   encoding.String(),
		synthesize: fn,
		close:      func() error { return nil },
		logger:     logger,
	}, nil
}

// Synthesize implements provider.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*provider.Audio, error) {
	resp, err := s.synthesize(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice:       s.voice,
		AudioConfig: s.audio,
	})
	if err != nil {
		return nil, &core.ProviderError{Provider: name, Op: "synthesize", Err: err}
	}
	s.logger.Debug("synthesized speech", "chars", len(text), "bytes", len(resp.GetAudioContent()))
	return &provider.Audio{Data: resp.GetAudioContent(), Encoding: s.encoding}, nil
}

// Close releases the underlying client.
func (s *Synthesizer) Close() error {
	return s.close()
}

// ParseGender maps MALE, FEMALE or NEUTRAL (any case) to the API enum.
// Empty means unspecified.
func ParseGender(s string) (texttospeechpb.SsmlVoiceGender, error) {
	if s == "" {
		return texttospeechpb.SsmlVoiceGender_SSML_VOICE_GENDER_UNSPECIFIED, nil
	}
	v, ok := texttospeechpb.SsmlVoiceGender_value[strings.ToUpper(s)]
	if !ok {
		return 0, fmt.Errorf("googletts: unknown voice gender %q", s)
	}
	return texttospeechpb.SsmlVoiceGender(v), nil
}

// ParseEncoding maps an audio encoding name such as MP3 or LINEAR16 to the
// API enum. Empty means MP3.
func ParseEncoding(s string) (texttospeechpb.AudioEncoding, error) {
	if s == "" {
		return texttospeechpb.AudioEncoding_MP3, nil
	}
	v, ok := texttospeechpb.AudioEncoding_value[strings.ToUpper(s)]
	if !ok || v == int32(texttospeechpb.AudioEncoding_AUDIO_ENCODING_UNSPECIFIED) {
		return 0, fmt.Errorf("googletts: unknown audio encoding %q", s)
	}
	return texttospeechpb.AudioEncoding(v), nil
}
