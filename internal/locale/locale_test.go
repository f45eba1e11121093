package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youhavemail/yhm/internal/interval"
)

func TestLoad_English(t *testing.T) {
	c, err := Load("en")
	require.NoError(t, err)
	assert.Equal(t, "en", c.Lang)
	assert.Equal(t, "Updating poll interval", c.String(KeyUpdatePollInterval))
	assert.Equal(t, interval.DefaultLabels(), c.Labels())
}

func TestLoad_Normalizes(t *testing.T) {
	for _, in := range []string{"nl", "NL", "nl-BE", "nl_BE.UTF-8"} {
		c, err := Load(in)
		require.NoError(t, err)
		assert.Equal(t, "nl", c.Lang, "input %q", in)
		assert.Equal(t, "seconden", c.Labels().SecondsLabel)
	}
}

func TestLoad_UnknownFallsBack(t *testing.T) {
	c, err := Load("xx")
	require.NoError(t, err)
	assert.Equal(t, Fallback, c.Lang)
	assert.Equal(t, "minutes", c.String(KeyMinutes))

	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Fallback, c.Lang)
}

func TestString_MissingKey(t *testing.T) {
	c, err := Load("fr")
	require.NoError(t, err)
	assert.Equal(t, "no_such_key", c.String("no_such_key"))

	// A key missing from a translation resolves to English.
	c.strings = map[string]string{}
	assert.Equal(t, "Settings", c.String(KeySettings))
}

func TestEveryLanguageHasAllKeys(t *testing.T) {
	keys := []string{
		KeySettings, KeyPollInterval, KeyPollIntervalDesc, KeyUpdatePollInterval,
		KeySeconds, KeyMinutes, KeyBack, KeyDone, KeyFailed, KeyCanceled,
	}
	langs := Languages()
	assert.Equal(t, []string{"en", "fr", "nl"}, langs)

	for _, lang := range langs {
		f, err := readFile(lang)
		require.NoError(t, err)
		assert.Equal(t, lang, f.Lang)
		for _, k := range keys {
			assert.NotEmpty(t, f.Strings[k], "%s is missing %s", lang, k)
		}
	}
}

func TestLabelsFormatting(t *testing.T) {
	c, err := Load("fr")
	require.NoError(t, err)
	assert.Equal(t, "2 minutes", interval.FormatSeconds(150, c.Labels()))
	assert.Equal(t, "30 secondes", interval.FormatSeconds(30, c.Labels()))
}
