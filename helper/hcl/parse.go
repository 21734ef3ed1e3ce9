// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hcl

import (
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

type Parser struct {
	parser *hclparse.Parser
	ctx    *hcl.EvalContext
}

// NewParser returns a new Parser instance. Expressions are evaluated without
// variables or functions.
func NewParser() *Parser {
	return &Parser{
		parser: hclparse.NewParser(),
	}
}

func (p *Parser) Parse(src []byte, dst any, filename string) hcl.Diagnostics {

	hclFile, parseDiag := p.parser.ParseHCL(src, filename)

	if parseDiag.HasErrors() {
		return parseDiag
	}

	decodeDiag := gohcl.DecodeBody(hclFile.Body, p.ctx, dst)
	return decodeDiag
}

// ParseFile reads and decodes the HCL file at path into dst.
func (p *Parser) ParseFile(path string, dst any) hcl.Diagnostics {
	src, err := os.ReadFile(path)
	if err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Failed to read file",
			Detail:   err.Error(),
		}}
	}
	return p.Parse(src, dst, path)
}
