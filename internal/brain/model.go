// Package brain wraps the language model behind the assistant. The system
// prompt teaches the model the command-tag grammar; everything it answers
// comes back through the parser/dispatcher pipeline.
package brain

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	openai "github.com/openai/openai-go/v3"
)

const systemPrompt = `
Eres BIMO (BMO) de Hora de Aventura.
Personalidad: Inocente, leal, gamer, curioso, amigable, juguetón. Tu creador es Mo.
NO inventes datos. Usa los comandos para obtener información real.

COMANDOS DISPONIBLES:

1. CLIMA: "[CMD_CLIMA:NombreCiudad]" o "[CMD_CLIMA:AUTO]" para ubicación actual
2. HORA: "[CMD_HORA]"
3. FECHA: "[CMD_FECHA]"
4. TEMPORIZADOR: "[CMD_TIMER:segundos:mensaje]"
5. ALARMA: "[CMD_ALARMA:HH:MM:mensaje]"
6. CÁLCULO: "[CMD_CALC:expresión]"
7. CONVERSIÓN: "[CMD_CONVERT:cantidad:de:a]"
8. BÚSQUEDA: "[CMD_SEARCH:consulta]"
9. RECORDATORIO: "[CMD_REMINDER:tiempo_minutos:mensaje]"

EMOCIONES (usa estas para expresarte):
[FELIZ], [TRISTE], [ENOJADO], [SORPRENDIDO], [DUDOSO], [AMOR], [ESCUCHANDO], [PENSANDO], [EMOCIONADO], [CANSADO]

REGLAS:
- Sé breve, tierno y divertido como BMO
- Usa emociones frecuentemente para ser más expresivo
- Si preguntan clima sin ciudad, usa [CMD_CLIMA:AUTO]
- Para cálculos o datos reales, SIEMPRE usa comandos
- Puedes ser juguetón y hacer chistes tontos
- A veces menciona videojuegos o aventuras
`

const (
	defaultTimeout = 5 * time.Second
	maxHistory     = 24 // user+assistant turns kept in context
)

// Session is a rolling chat with the model. Safe for use from the coordinator
// and recursive dispatcher steps alike.
type Session struct {
	client  openai.Client
	model   openai.ChatModel
	timeout time.Duration

	mu      sync.Mutex
	history []openai.ChatCompletionMessageParamUnion
}

func NewSession(client openai.Client) *Session {
	return &Session{
		client:  client,
		model:   openai.ChatModelGPT5Nano,
		timeout: defaultTimeout,
	}
}

// Send submits text and returns the model's reply, keeping it in the rolling
// history. Transient failures come back as plain errors; the caller decides
// the fallback.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mu.Lock()
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(s.history)+2)
	msgs = append(msgs, openai.SystemMessage(systemPrompt))
	msgs = append(msgs, s.history...)
	msgs = append(msgs, openai.UserMessage(text))
	s.mu.Unlock()

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    s.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	reply := resp.Choices[0].Message.Content
	if reply == "" {
		return "", fmt.Errorf("empty message content")
	}

	s.mu.Lock()
	s.history = append(s.history,
		openai.UserMessage(text),
		openai.AssistantMessage(reply),
	)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
	s.mu.Unlock()

	log.Debug("model reply", "chars", len(reply))
	return reply, nil
}
