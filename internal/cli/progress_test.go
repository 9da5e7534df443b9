package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBulkProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewBulkProgress(&buf, 3)

	for i := 1; i <= 3; i++ {
		p.Update(i, 3)
	}
	p.Finish()

	assert.Contains(t, buf.String(), "Calculating tariff impact")
	assert.Contains(t, buf.String(), "3/3")
}
