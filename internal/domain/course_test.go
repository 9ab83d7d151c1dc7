package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "信号_系统", SanitizeName("信号/系统"))
	assert.Equal(t, "a_b_c_d_e_f_g_h_i", SanitizeName(` a\b:c*d?e"f<g>h|i `))
	assert.Equal(t, "第1讲", SanitizeName("第1讲"))
}
