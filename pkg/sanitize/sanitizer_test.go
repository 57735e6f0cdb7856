package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSanitizer(t *testing.T, cfg *Config) *Sanitizer {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestSanitize_StripsLeadingBullet(t *testing.T) {
	s := newSanitizer(t, nil)

	lines, err := s.Sanitize("• Did X, improved Y by 10%", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Did X, improved Y by 10%"}, lines)
}

func TestSanitize_SplitsEmbeddedLineBreaks(t *testing.T) {
	s := newSanitizer(t, nil)

	lines, err := s.Sanitize("• Grew ARR 40% year over year\n- Hired and mentored four engineers", false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Grew ARR 40% year over year",
		"Hired and mentored four engineers",
	}, lines)
}

func TestSanitize_MixedBreakFlavors(t *testing.T) {
	s := newSanitizer(t, nil)

	lines, err := s.Sanitize("First achievement\r\n• Second achievement\vThird achievement", false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"First achievement",
		"Second achievement",
		"Third achievement",
	}, lines)
}

func TestSanitize_KeepAndStripCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "dash bullet stripped",
			input: "- Led migration to Kubernetes",
			want:  "Led migration to Kubernetes",
		},
		{
			name:  "asterisk bullet stripped",
			input: "* Shipped the billing rewrite ahead of schedule",
			want:  "Shipped the billing rewrite ahead of schedule",
		},
		{
			name:  "stacked markers stripped",
			input: "• • Delivered twice-pasted line",
			want:  "Delivered twice-pasted line",
		},
		{
			name:  "arrow bullet stripped",
			input: "➤ Cut infra spend by a third",
			want:  "Cut infra spend by a third",
		},
		{
			name:  "range after dash still a bullet",
			input: "- 3-5 years of Go in production",
			want:  "3-5 years of Go in production",
		},
		{
			name:  "email keeps the line untouched",
			input: "- Contact john-doe@example.com for references",
			want:  "- Contact john-doe@example.com for references",
		},
		{
			name:  "url keeps the line untouched",
			input: "- https://github.com/example/project",
			want:  "- https://github.com/example/project",
		},
		{
			name:  "textual date keeps the dash",
			input: "- March 2020 promotion to staff",
			want:  "- March 2020 promotion to staff",
		},
		{
			name:  "numeric date keeps the dash",
			input: "- 2021-03-05 joined the platform team",
			want:  "- 2021-03-05 joined the platform team",
		},
		{
			name:  "negative number keeps the dash",
			input: "-3.5% cost variance across regions",
			want:  "-3.5% cost variance across regions",
		},
		{
			name:  "glyph glued to a word stays",
			input: "*args handling in the CLI parser",
			want:  "*args handling in the CLI parser",
		},
		{
			name:  "strong glyph glued to a word still strips",
			input: "•Pasted without a space",
			want:  "Pasted without a space",
		},
		{
			name:  "mid-sentence dash untouched",
			input: "Grew revenue - doubled the team size",
			want:  "Grew revenue - doubled the team size",
		},
		{
			name:  "marker-only line survives whole",
			input: "•",
			want:  "•",
		},
		{
			name:  "short content keeps a weak marker",
			input: "- Go",
			want:  "- Go",
		},
		{
			name:  "emoji bullet stripped",
			input: "✅ AWS certified solutions architect",
			want:  "AWS certified solutions architect",
		},
		{
			name:  "mid-line emoji untouched",
			input: "Community speaker ❤️ open source",
			want:  "Community speaker ❤️ open source",
		},
	}

	s := newSanitizer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := s.Sanitize(tt.input, false)
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.want, lines[0])
		})
	}
}

func TestSanitize_StrictReportsInsteadOfFixing(t *testing.T) {
	s := newSanitizer(t, nil)

	_, err := s.Sanitize("• Built the data pipeline\nBacked by tests", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line break")
	assert.Contains(t, err.Error(), "marker")

	lines, err := s.Sanitize("Built the data pipeline", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Built the data pipeline"}, lines)
}

func TestSanitize_LocaleBoostFlipsDecision(t *testing.T) {
	input := "・チームを主導した"

	neutral := newSanitizer(t, nil)
	lines, err := neutral.Sanitize(input, false)
	require.NoError(t, err)
	assert.Equal(t, []string{input}, lines, "below threshold without the locale boost")

	japanese := newSanitizer(t, &Config{Locale: "ja"})
	lines, err = japanese.Sanitize(input, false)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.NotEqual(t, input, lines[0])
	assert.NotContains(t, lines[0], "・")
}

func TestSanitize_EmptyInput(t *testing.T) {
	s := newSanitizer(t, nil)

	lines, err := s.Sanitize("", false)
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = s.Sanitize("\n\n  \n", false)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestDetect_MidLineNeverStrippable(t *testing.T) {
	s := newSanitizer(t, nil)

	detections := s.Detect("Led team growth • shipped the public API")
	require.NotEmpty(t, detections)
	for _, det := range detections {
		assert.False(t, det.Strippable, "mid-line %q must not be strippable", det.Glyph)
	}
}

func TestDetect_ExclusionRecorded(t *testing.T) {
	s := newSanitizer(t, nil)

	detections := s.Detect("- Contact john-doe@example.com")
	require.NotEmpty(t, detections)
	assert.Contains(t, detections[0].Exclusions, "email")
	assert.False(t, detections[0].Strippable)
}

func TestNew_RejectsBadThreshold(t *testing.T) {
	_, err := New(&Config{Threshold: 1.4})
	assert.Error(t, err)

	_, err = New(&Config{Threshold: -0.1})
	assert.Error(t, err)
}
