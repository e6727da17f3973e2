package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	data := map[string]any{"Names": []string{"Sapphira", "Jasper", "Garnet"}, "Game": "chess", "Empty": ""}

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "plain text", text: "no markers here", want: "no markers here"},
		{name: "join", text: "Players {{ join \", \" .Names }}.", want: "Players Sapphira, Jasper, Garnet."},
		{name: "upper", text: "{{ upper .Game }}", want: "CHESS"},
		{name: "title", text: "{{ title .Game }}", want: "Chess"},
		{name: "default", text: "{{ default \"dice\" .Empty }}", want: "dice"},
		{name: "no html escaping", text: "{{ .Game }} & {{ \"<friends>\" }}", want: "chess & <friends>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderTemplate(tt.text, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTemplate_Errors(t *testing.T) {
	_, err := RenderTemplate("{{ .Names", nil)
	assert.ErrorContains(t, err, "parse template")

	_, err = RenderTemplate("{{ .Unknown }}", map[string]any{})
	assert.ErrorContains(t, err, "render template")
}
