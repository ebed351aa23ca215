package tsregex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/marmos91/codeindex/pkg/index/parse/tsregex"
)

func TestParseExtractsFunctionAndImport(t *testing.T) {
	src := []byte(`
import { x } from './a';

export function run(a, b) {
  return x + a + b;
}
`)
	ex := tsregex.New()
	result, err := ex.Parse("b.ts", src)
	require.NoError(t, err)

	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "run", result.Symbols[0].QualifiedName)
	assert.Equal(t, model.KindFunction, result.Symbols[0].Kind)
	assert.True(t, result.Symbols[0].Exported)

	var sawImport bool
	for _, rel := range result.Relations {
		if rel.Type == model.RelationImports && rel.DstModule == "./a" && rel.DstSymbol == "x" {
			sawImport = true
		}
	}
	assert.True(t, sawImport)
}

func TestParseExtractsClassHeritage(t *testing.T) {
	src := []byte(`export class Dog extends Animal implements Pet, Named {}`)
	ex := tsregex.New()
	result, err := ex.Parse("dog.ts", src)
	require.NoError(t, err)

	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "Dog", result.Symbols[0].QualifiedName)

	var extends, implementsPet, implementsNamed bool
	for _, rel := range result.Relations {
		switch {
		case rel.Type == model.RelationExtends && rel.DstSymbol == "Animal":
			extends = true
		case rel.Type == model.RelationImplement && rel.DstSymbol == "Pet":
			implementsPet = true
		case rel.Type == model.RelationImplement && rel.DstSymbol == "Named":
			implementsNamed = true
		}
	}
	assert.True(t, extends)
	assert.True(t, implementsPet)
	assert.True(t, implementsNamed)
}

func TestParseExtractsReExport(t *testing.T) {
	src := []byte(`export { foo, bar as baz } from './lib';`)
	ex := tsregex.New()
	result, err := ex.Parse("index.ts", src)
	require.NoError(t, err)

	require.Len(t, result.Relations, 2)
	assert.Equal(t, model.RelationReExport, result.Relations[0].Type)
}
