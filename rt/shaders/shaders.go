// Package shaders embeds the WGSL sources of the chunk, shadow and text passes.
package shaders

import (
	_ "embed"
)

//go:embed chunk.wgsl
var ChunkWGSL string

//go:embed shadow.wgsl
var ShadowWGSL string

//go:embed text.wgsl
var TextWGSL string
