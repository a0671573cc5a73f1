package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"MONTERÍA", "monteria"},
		{"Cereté", "CERETE"},
		{"  San   Andrés de Sotavento ", "SAN ANDRES DE SOTAVENTO"},
		{"Chinú", "chinu"},
	}

	for _, tt := range tests {
		t.Run(tt.a, func(t *testing.T) {
			assert.Equal(t, foldName(tt.a), foldName(tt.b))
		})
	}

	assert.NotEqual(t, foldName("Montería"), foldName("Momil"))
}

func TestSortNames(t *testing.T) {
	names := []string{"Ñeque", "Sahagún", "Cereté", "ayapel", "Nechí", "Ciénaga de Oro"}
	sortNames(names)
	assert.Equal(t, []string{"ayapel", "Cereté", "Ciénaga de Oro", "Nechí", "Ñeque", "Sahagún"}, names)
}

func TestTitleName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SAN ANDRÉS DE SOTAVENTO", "San Andrés De Sotavento"},
		{"MONTERÍA", "Montería"},
		{"Cereté", "Cereté"},
		{"23001", "23001"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleName(tt.in))
		})
	}
}
