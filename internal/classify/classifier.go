package classify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"story-agent/internal/logging"
	"story-agent/internal/model"
)

const maxCaptionLen = 50

// DefaultCaption is used whenever neither the keyword table nor the caption
// service produces anything usable. A job is never failed for caption reasons.
const DefaultCaption = "🚀 FINITI Inovação"

const defaultStyle = model.StyleTechnical

// rule maps a filename keyword to a caption template and music style.
type rule struct {
	keyword string
	caption string
	style   model.Style
}

// Table order is the tie-break: the first matching keyword wins, so the order
// must stay stable for reproducible output.
var rules = []rule{
	{"airless", "🔧 Tecnologia Airless", model.StyleTechnical},
	{"manual", "📖 Guia Completo", model.StyleCalm},
	{"tecnico", "⚙️ Precisão Técnica", model.StyleTechnical},
	{"vendas", "💰 Oportunidade Única", model.StyleSales},
	{"promocao", "🎁 Oferta Especial", model.StyleSales},
	{"treino", "💪 Capacitação Pro", model.StyleEnergetic},
	{"energia", "⚡ Força Total", model.StyleEnergetic},
	{"qualidade", "🏆 Excelência FINITI", model.StyleTechnical},
	{"inovacao", "🚀 Futuro Agora", model.StyleElectronic},
	{"produto", "✨ Solução Ideal", model.StyleSales},
}

// CaptionService generates a short caption from a prompt. Implementations are
// optional and fallible; the classifier absorbs every failure.
type CaptionService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Classifier derives (caption, style) for a source clip: keyword rules first,
// then an AI rewrite of the caption when a service is configured.
type Classifier struct {
	log *logging.Logger
	svc CaptionService
}

func New(log *logging.Logger, svc CaptionService) *Classifier {
	return &Classifier{log: log, svc: svc}
}

// Classify never fails: the result is always a non-empty caption and a valid
// style. description is an optional externally produced content summary
// (transcript or vision description) used to enrich the AI prompt.
func (c *Classifier) Classify(ctx context.Context, sourcePath, description string) (string, model.Style) {
	caption, style := matchKeywords(sourcePath)

	if c.svc != nil {
		if generated, err := c.generate(ctx, sourcePath, description); err != nil {
			c.log.Warnf("classify: caption service unavailable, keeping keyword caption: %v", err)
		} else if generated != "" {
			caption = generated
		}
	}

	return caption, style
}

func (c *Classifier) generate(ctx context.Context, sourcePath, description string) (string, error) {
	prompt := buildPrompt(sourcePath, description)
	raw, err := c.svc.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	caption := NormalizeCaption(raw)
	if caption == "" {
		return "", fmt.Errorf("caption service returned empty text")
	}
	return caption, nil
}

func buildPrompt(sourcePath, description string) string {
	stem := stemOf(sourcePath)
	var b strings.Builder
	fmt.Fprintf(&b, "Crie uma frase de marketing curta (máximo %d caracteres) para um story de rede social sobre o vídeo %q. ", maxCaptionLen, stem)
	if description != "" {
		fmt.Fprintf(&b, "Conteúdo do vídeo: %s. ", description)
	}
	b.WriteString("Responda apenas com a frase, sem explicações.")
	return b.String()
}

func matchKeywords(sourcePath string) (string, model.Style) {
	stem := strings.ToLower(stemOf(sourcePath))
	for _, r := range rules {
		if strings.Contains(stem, r.keyword) {
			return r.caption, r.style
		}
	}
	return DefaultCaption, defaultStyle
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NormalizeCaption collapses all whitespace runs (including newlines) into
// single spaces and truncates to the maximum caption length.
func NormalizeCaption(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxCaptionLen {
		s = strings.TrimSpace(string(runes[:maxCaptionLen]))
	}
	return s
}
