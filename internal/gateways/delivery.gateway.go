package gateway

import (
	"encoding/json"
	"time"

	"github.com/rkarimi/tutordesk/pkg/logger"
	"github.com/valyala/fasthttp"
)

type DeliveryConfig struct {
	URL     string
	Timeout time.Duration
}

// DeliveryClient hands finished report content to the external messaging
// channel. Sends are fire-and-forget: a channel failure is logged and
// swallowed, and must never block or roll back the report queue's advance.
type DeliveryClient struct {
	config DeliveryConfig
	client *fasthttp.Client
}

func NewDeliveryClient(config DeliveryConfig) *DeliveryClient {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &DeliveryClient{
		config: config,
		client: &fasthttp.Client{
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}
}

type deliveryRequest struct {
	Phone   string `json:"phone"`
	Content string `json:"content"`
}

func (c *DeliveryClient) Send(phone, content string) {
	go func() {
		body, err := json.Marshal(deliveryRequest{Phone: phone, Content: content})
		if err != nil {
			logger.Error("failed to marshal delivery request", "error", err)
			return
		}

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(c.config.URL + "/api/v1/messages")
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.SetBody(body)

		if err := c.client.DoDeadline(req, resp, time.Now().Add(c.config.Timeout)); err != nil {
			logger.Warn("delivery channel send failed", "phone", phone, "error", err)
			return
		}
		if sc := resp.StatusCode(); sc != fasthttp.StatusOK && sc != fasthttp.StatusAccepted {
			logger.Warn("delivery channel rejected message", "phone", phone, "status", sc)
		}
	}()
}
