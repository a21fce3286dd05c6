package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestRootCmd(t *testing.T) {
	viper.Reset()

	b := bytes.NewBufferString("")
	rootCmd.SetOut(b)
	rootCmd.SetErr(b)
	rootCmd.SetArgs([]string{"--help"})

	err := rootCmd.Execute()
	assert.NoError(t, err)

	output := b.String()
	assert.Contains(t, output, "answers farmers' questions from a curated knowledge base")
	assert.Contains(t, output, "Usage:")
	for _, name := range []string{"serve", "ask", "advice", "greeting", "import", "status"} {
		assert.Contains(t, output, name)
	}
}

func TestVersionCmd(t *testing.T) {
	viper.Reset()

	b := bytes.NewBufferString("")
	rootCmd.SetOut(b)
	rootCmd.SetErr(b)
	rootCmd.SetArgs([]string{"version"})

	assert.NoError(t, rootCmd.Execute())
	assert.Contains(t, b.String(), "advisor "+GetVersion())
	assert.Equal(t, "0.1.0", GetVersion())
}
