package rag

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"shakespeare-rag-api/internal/domain/corpus"
	apperrors "shakespeare-rag-api/pkg/errors"
)

// minSceneChars filters out front matter and stage-direction stubs
// that parse as near-empty scenes.
const minSceneChars = 50

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Keep word characters and basic punctuation, drop everything else
	// (entities, typographic quotes, markup remnants).
	punctRe = regexp.MustCompile(`[^\w\s.,!?;:()\-]`)
)

// Parser extracts the act/scene structure of a play from its HTML
// markup. The corpus pages mark acts and scenes with h3 headings,
// carry the dialogue in p and blockquote elements, and tag each speech
// with an anchor holding the speaker name in a b element.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads one play. The whole play is rejected when the document
// carries no ACT/SCENE structure, when a scene appears before any act
// heading, or when act ordinals do not increase.
func (p *Parser) Parse(r io.Reader, info corpus.PlayInfo) (*corpus.Play, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeParseError, fmt.Sprintf("play %q: invalid HTML", info.Title))
	}

	play := &corpus.Play{
		Title:    info.Title,
		Category: info.Category,
	}

	var (
		curAct       *corpus.Act
		sceneTitle   string
		sceneOrdinal int
		sceneText    []string
		sceneChars   map[string]struct{}
		lastSpeaker  string
		parseErr     error
	)

	flushScene := func() {
		if sceneTitle == "" || len(sceneText) == 0 {
			return
		}
		text := cleanText(strings.Join(sceneText, " "))
		if len(text) <= minSceneChars {
			return
		}
		if curAct == nil {
			parseErr = apperrors.Newf(apperrors.CodeParseError,
				"play %q: scene %q appears before any act heading", info.Title, sceneTitle)
			return
		}
		curAct.Scenes = append(curAct.Scenes, corpus.Scene{
			Title:      sceneTitle,
			Ordinal:    sceneOrdinal,
			Text:       text,
			Characters: sortedKeys(sceneChars),
		})
	}

	doc.Find("h3, p, blockquote, a[name^='speech']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if parseErr != nil {
			return false
		}
		switch goquery.NodeName(s) {
		case "h3":
			text := strings.TrimSpace(s.Text())
			upper := strings.ToUpper(text)

			if strings.HasPrefix(upper, "ACT") {
				flushScene()
				sceneTitle, sceneText, sceneChars = "", nil, nil

				ordinal := headingOrdinal(text)
				if curAct != nil && ordinal <= curAct.Ordinal {
					parseErr = apperrors.Newf(apperrors.CodeParseError,
						"play %q: act ordering broken at %q (after ordinal %d)", info.Title, text, curAct.Ordinal)
					return false
				}
				play.Acts = append(play.Acts, corpus.Act{Label: text, Ordinal: ordinal})
				curAct = &play.Acts[len(play.Acts)-1]
				return true
			}

			if strings.HasPrefix(upper, "SCENE") {
				flushScene()
				sceneTitle = text
				sceneText = nil
				sceneChars = make(map[string]struct{})
				lastSpeaker = ""
				if ord := headingOrdinal(text); ord > 0 {
					sceneOrdinal = ord
				} else if curAct != nil {
					sceneOrdinal = len(curAct.Scenes) + 1
				} else {
					sceneOrdinal = 1
				}
			}
			return true

		case "a":
			// Speech anchor: remember the speaker until the next one.
			if b := s.Find("b").First(); b.Length() > 0 {
				lastSpeaker = strings.TrimSpace(b.Text())
			}
			return true

		case "p", "blockquote":
			text := strings.TrimSpace(s.Text())
			if text == "" || sceneTitle == "" {
				return true
			}
			sceneText = append(sceneText, text)
			if lastSpeaker != "" {
				sceneChars[lastSpeaker] = struct{}{}
			}
			return true
		}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	flushScene()
	if parseErr != nil {
		return nil, parseErr
	}

	total := 0
	for _, act := range play.Acts {
		total += len(act.Scenes)
	}
	if total == 0 {
		return nil, apperrors.Newf(apperrors.CodeParseError,
			"play %q: no ACT/SCENE structure found", info.Title)
	}

	return play, nil
}

// headingOrdinal pulls the numeral out of a heading like "ACT I" or
// "SCENE II. Elsinore.". Returns 0 when none is found.
func headingOrdinal(heading string) int {
	fields := strings.Fields(heading)
	if len(fields) < 2 {
		return 0
	}
	token := strings.TrimRight(fields[1], ".,:")
	if n, err := strconv.Atoi(token); err == nil {
		return n
	}
	return romanToArabic(token)
}

var romanValues = map[rune]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

func romanToArabic(roman string) int {
	result, prev := 0, 0
	for _, r := range strings.ToUpper(roman) {
		curr, ok := romanValues[r]
		if !ok {
			return 0
		}
		if curr > prev {
			result += curr - 2*prev
		} else {
			result += curr
		}
		prev = curr
	}
	return result
}

// cleanText collapses whitespace and strips characters outside the
// word/basic-punctuation set.
func cleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = punctRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
