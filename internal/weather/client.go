// Package weather pulls the current conditions feed that the
// recommendation engine scores against. The feed is optional: callers
// must degrade gracefully when it is unconfigured or down.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boathouse/internal/config"
	"boathouse/internal/constants"
	"boathouse/internal/domain"

	"github.com/valyala/fasthttp"
)

// ErrDisabled is returned when no feed URL is configured.
var ErrDisabled = errors.New("weather feed not configured")

type Client struct {
	baseURL string
	client  *fasthttp.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.WeatherBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

type conditionsResponse struct {
	WindSpeed     float64 `json:"wind_speed"`
	WaveHeight    float64 `json:"wave_height"`
	Precipitation bool    `json:"precipitation"`
}

// Current fetches a fresh snapshot of on-the-water conditions.
func (c *Client) Current(ctx context.Context) (*domain.Conditions, error) {
	if c.baseURL == "" {
		return nil, ErrDisabled
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/conditions")
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := time.Now().Add(constants.ExternalAPITimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("fetch conditions: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("conditions feed returned status %d", resp.StatusCode())
	}

	var body conditionsResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode conditions: %w", err)
	}

	return &domain.Conditions{
		WindSpeed:     body.WindSpeed,
		WaveHeight:    body.WaveHeight,
		Precipitation: body.Precipitation,
	}, nil
}
