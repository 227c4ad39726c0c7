package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderXML = `<?xml version="1.0" encoding="UTF-8"?>
<Order xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
    xmlns="urn:oasis:names:specification:ubl:schema:xsd:Order-2">
<cbc:ID>AEG012345</cbc:ID>
<cbc:UUID>6E09886B-DC6E-439F-82D1-7CCAC7F4E3B1</cbc:UUID>
</Order>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "parse", writeFile(t, "order.xml", orderXML))
	require.NoError(t, err)

	var order map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &order))
	assert.Equal(t, "AEG012345", order["orderId"])
	assert.Nil(t, order["orderLine"])
}

func TestParseCommand_WrongRoot(t *testing.T) {
	_, err := run(t, "parse", writeFile(t, "foo.xml", "<Foo/>"))
	assert.EqualError(t, err, "XML is not a valid UBL Order.")
}

func TestGenerateCommand_WithOverrides(t *testing.T) {
	order := writeFile(t, "order.xml", orderXML)
	overrides := writeFile(t, "overrides.yaml", "backorderReason: Overstocked\ndeliveredQuantity: \"12\"\n")

	out, err := run(t, "generate", order, "--overrides", overrides)
	require.NoError(t, err)
	assert.Contains(t, out, "<cbc:ID>AEG012345</cbc:ID>")
	assert.Contains(t, out, "<cbc:BackorderReason>Overstocked</cbc:BackorderReason>")
	assert.Contains(t, out, `<cbc:DeliveredQuantity unitCode="KGM">12</cbc:DeliveredQuantity>`)
}

func TestGenerateCommand_UnknownOverride(t *testing.T) {
	order := writeFile(t, "order.xml", orderXML)
	overrides := writeFile(t, "overrides.yaml", "colour: red\n")

	_, err := run(t, "generate", order, "--overrides", overrides)
	assert.EqualError(t, err, "Invalid key in userInputs: colour")
}

func TestRenderCommand(t *testing.T) {
	order := writeFile(t, "order.xml", orderXML)
	despatch, err := run(t, "generate", order)
	require.NoError(t, err)

	in := writeFile(t, "despatch.xml", despatch)
	outPath := filepath.Join(t.TempDir(), "out.pdf")
	_, err = run(t, "render", in, "-o", outPath)
	require.NoError(t, err)

	pdf, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestCommands_RequireOneArg(t *testing.T) {
	for _, name := range []string{"parse", "generate", "render"} {
		_, err := run(t, name)
		assert.Error(t, err, name)
	}
}
