// Package tts holds the Synthesizer backends the speech serializer can use.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"

	openai "github.com/openai/openai-go/v3"

	"bimo/internal/playback"
)

// OpenAI synthesizes speech through the OpenAI audio API and plays the
// resulting mp3 locally.
type OpenAI struct {
	client openai.Client
	player *playback.Player
	voice  openai.AudioSpeechNewParamsVoice
}

func NewOpenAI(client openai.Client, player *playback.Player) *OpenAI {
	return &OpenAI{
		client: client,
		player: player,
		voice:  openai.AudioSpeechNewParamsVoiceNova,
	}
}

func (o *OpenAI) Speak(ctx context.Context, text string) error {
	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelGPT4oMiniTTS,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}

	clip, err := playback.DecodeMP3(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}
	return o.player.Play(clip)
}
