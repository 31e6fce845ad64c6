package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakespeare-rag-api/internal/domain/corpus"
	apperrors "shakespeare-rag-api/pkg/errors"
)

const hamletFragment = `<html><body>
<h3>ACT I</h3>
<h3>SCENE I. Elsinore. A platform before the castle.</h3>
<a name="speech1"><b>BERNARDO</b></a>
<blockquote>Who's there? Long live the king! You come most carefully upon your hour.</blockquote>
<a name="speech2"><b>FRANCISCO</b></a>
<blockquote>Nay, answer me: stand, and unfold yourself. For this relief much thanks: tis bitter cold.</blockquote>
<h3>SCENE II. A room of state in the castle.</h3>
<a name="speech3"><b>KING CLAUDIUS</b></a>
<blockquote>Though yet of Hamlet our dear brother's death the memory be green, and that it us befitted to bear our hearts in grief.</blockquote>
<h3>ACT II</h3>
<h3>SCENE I. A room in POLONIUS' house.</h3>
<a name="speech4"><b>POLONIUS</b></a>
<blockquote>Give him this money and these notes, Reynaldo. You shall do marvellous wisely, good Reynaldo, before you visit him.</blockquote>
</body></html>`

func TestParserExtractsActsAndScenes(t *testing.T) {
	p := NewParser()
	play, err := p.Parse(strings.NewReader(hamletFragment), corpus.PlayInfo{
		Title:    "Hamlet",
		Category: corpus.CategoryTragedy,
	})
	require.NoError(t, err)

	require.Len(t, play.Acts, 2)
	assert.Equal(t, "ACT I", play.Acts[0].Label)
	assert.Equal(t, 1, play.Acts[0].Ordinal)
	assert.Equal(t, 2, play.Acts[1].Ordinal)

	require.Len(t, play.Acts[0].Scenes, 2)
	require.Len(t, play.Acts[1].Scenes, 1)

	first := play.Acts[0].Scenes[0]
	assert.Equal(t, 1, first.Ordinal)
	assert.Contains(t, first.Title, "SCENE I.")
	assert.Contains(t, first.Text, "Long live the king")
	assert.Equal(t, []string{"BERNARDO", "FRANCISCO"}, first.Characters)

	second := play.Acts[0].Scenes[1]
	assert.Equal(t, 2, second.Ordinal)
	assert.Equal(t, []string{"KING CLAUDIUS"}, second.Characters)
}

func TestParserCleansText(t *testing.T) {
	html := `<html><body>
<h3>ACT I</h3>
<h3>SCENE I. Somewhere.</h3>
<p>Text   with     odd    spacing and “smart quotes” that must not survive the cleaner at all.</p>
</body></html>`

	p := NewParser()
	play, err := p.Parse(strings.NewReader(html), corpus.PlayInfo{Title: "Test", Category: corpus.CategoryComedy})
	require.NoError(t, err)

	text := play.Acts[0].Scenes[0].Text
	assert.NotContains(t, text, "  ")
	assert.NotContains(t, text, "“")
	assert.Contains(t, text, "smart quotes")
}

func TestParserRejectsDocumentWithoutStructure(t *testing.T) {
	html := `<html><body><p>Just some prose without any act or scene headings at all in it.</p></body></html>`

	p := NewParser()
	_, err := p.Parse(strings.NewReader(html), corpus.PlayInfo{Title: "Broken", Category: corpus.CategoryComedy})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeParseError))
}

func TestParserRejectsSceneBeforeAct(t *testing.T) {
	html := `<html><body>
<h3>SCENE I. Orphan scene.</h3>
<p>This scene has plenty of text but it appears before any act heading was seen.</p>
</body></html>`

	p := NewParser()
	_, err := p.Parse(strings.NewReader(html), corpus.PlayInfo{Title: "Broken", Category: corpus.CategoryComedy})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeParseError))
}

func TestParserRejectsNonIncreasingActs(t *testing.T) {
	html := `<html><body>
<h3>ACT II</h3>
<h3>SCENE I. First.</h3>
<p>Enough text to make this scene count as real content for the parser to keep it around.</p>
<h3>ACT I</h3>
<h3>SCENE I. Second.</h3>
<p>More text that is long enough to be kept by the parser as substantial scene content.</p>
</body></html>`

	p := NewParser()
	_, err := p.Parse(strings.NewReader(html), corpus.PlayInfo{Title: "Broken", Category: corpus.CategoryHistory})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeParseError))
}

func TestParserSkipsTinyScenes(t *testing.T) {
	html := `<html><body>
<h3>ACT I</h3>
<h3>SCENE I. Empty.</h3>
<p>Too short.</p>
<h3>SCENE II. Real.</h3>
<p>This second scene carries enough dialogue to clear the minimum content threshold easily.</p>
</body></html>`

	p := NewParser()
	play, err := p.Parse(strings.NewReader(html), corpus.PlayInfo{Title: "Test", Category: corpus.CategoryComedy})
	require.NoError(t, err)

	require.Len(t, play.Acts, 1)
	require.Len(t, play.Acts[0].Scenes, 1)
	assert.Equal(t, 2, play.Acts[0].Scenes[0].Ordinal)
}

func TestRomanToArabic(t *testing.T) {
	cases := map[string]int{
		"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5,
		"IX": 9, "X": 10, "XIV": 14,
	}
	for roman, want := range cases {
		assert.Equal(t, want, romanToArabic(roman), roman)
	}
	assert.Equal(t, 0, romanToArabic("Q"))
}
