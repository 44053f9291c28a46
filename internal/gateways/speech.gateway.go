package gateway

import (
	"encoding/json"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/logger"
	"github.com/valyala/fasthttp"
)

type SpeechConfig struct {
	URL     string
	Timeout time.Duration
}

// SpeechClient drives the audio bridge next to the scan surface: spoken
// greetings and feedback tones. Best-effort only; failures are logged at
// debug level and ignored so a dead speaker never affects attendance.
type SpeechClient struct {
	config SpeechConfig
	client *fasthttp.Client
}

func NewSpeechClient(config SpeechConfig) *SpeechClient {
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Second
	}
	return &SpeechClient{
		config: config,
		client: &fasthttp.Client{
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
		},
	}
}

func (c *SpeechClient) Speak(text string) {
	c.post("/api/v1/speech/say", map[string]string{"text": text})
}

func (c *SpeechClient) Tone(kind model.ToneKind) {
	c.post("/api/v1/speech/tone", map[string]string{"kind": string(kind)})
}

func (c *SpeechClient) post(path string, payload map[string]string) {
	go func() {
		body, _ := json.Marshal(payload)

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(c.config.URL + path)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.SetBody(body)

		if err := c.client.DoDeadline(req, resp, time.Now().Add(c.config.Timeout)); err != nil {
			logger.Debug("speech bridge unreachable", "path", path, "error", err)
		}
	}()
}
