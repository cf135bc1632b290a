package discord

import (
	"fmt"
	"time"

	"github.com/assist-by/hookbridge/internal/notification"
)

// Discord 임베드 제한
const (
	embedFieldLimit       = 1024
	embedDescriptionLimit = 4096
	embedFooterText       = "HookBridge 🤖"
)

// WebhookMessage는 Discord 웹훅 메시지를 정의합니다
type WebhookMessage struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed는 Discord 메시지 임베드를 정의합니다
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField는 임베드 필드를 정의합니다
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedFooter는 임베드 푸터를 정의합니다
type EmbedFooter struct {
	Text string `json:"text"`
}

// newEmbed는 푸터와 전송 시각이 채워진 임베드를 생성합니다
func newEmbed(title string, color int) *Embed {
	return &Embed{
		Title:     title,
		Color:     color,
		Footer:    &EmbedFooter{Text: embedFooterText},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// describe는 설명을 설정합니다 (Discord 제한을 넘으면 잘라냄)
func (e *Embed) describe(format string, args ...any) *Embed {
	e.Description = truncate(fmt.Sprintf(format, args...), embedDescriptionLimit)
	return e
}

// AddField는 임베드에 필드를 추가합니다
// 값이 Discord 제한보다 길면 잘라냅니다
func (e *Embed) AddField(name, value string, inline bool) *Embed {
	e.Fields = append(e.Fields, EmbedField{
		Name:   name,
		Value:  truncate(value, embedFieldLimit),
		Inline: inline,
	})
	return e
}

// addPrice는 0보다 큰 가격만 필드로 추가합니다
func (e *Embed) addPrice(name string, price float64) *Embed {
	if price > 0 {
		e.AddField(name, fmt.Sprintf("$%.4f", price), true)
	}
	return e
}

// addWarnings는 경고 목록을 필드로 추가하고 색상을 경고색으로 바꿉니다
func (e *Embed) addWarnings(warnings []string) *Embed {
	if len(warnings) == 0 {
		return e
	}
	value := ""
	for i, w := range warnings {
		if i > 0 {
			value += "\n"
		}
		value += "• " + w
	}
	e.Color = notification.ColorWarning
	return e.AddField(fmt.Sprintf("경고 (%d)", len(warnings)), value, false)
}

func (e *Embed) message() WebhookMessage {
	return WebhookMessage{Embeds: []Embed{*e}}
}

func truncate(s string, limit int) string {
	if r := []rune(s); len(r) > limit {
		return string(r[:limit-3]) + "..."
	}
	return s
}
