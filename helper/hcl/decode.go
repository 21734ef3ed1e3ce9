// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hcl

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DecodeFileMode decodes an expression into an os.FileMode. It supports both
// string and numeric values. String values are parsed as octal ("0755",
// "755"); numeric values are taken as-is, so HCL authors should prefer the
// string form. Structs keep the attribute as an hcl.Expression and call this
// after decoding so diagnostics point at the offending source range.
func DecodeFileMode(expr hcl.Expression, ctx *hcl.EvalContext, val any) hcl.Diagnostics {
	if expr == nil {
		return nil
	}
	srcVal, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return diags
	}
	if srcVal.IsNull() {
		return diags
	}

	if srcVal.Type() == cty.String {
		mode, err := strconv.ParseUint(srcVal.AsString(), 8, 32)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsuitable value type",
				Detail:   fmt.Sprintf("Unsuitable file mode value: %s", err.Error()),
				Subject:  expr.StartRange().Ptr(),
				Context:  expr.Range().Ptr(),
			})
			return diags
		}
		srcVal = cty.NumberUIntVal(mode)
	}

	if srcVal.Type() != cty.Number {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsuitable value type",
			Detail:   fmt.Sprintf("Unsuitable value: expected a string but found %s", srcVal.Type()),
			Subject:  expr.StartRange().Ptr(),
			Context:  expr.Range().Ptr(),
		})
		return diags
	}

	var raw uint32
	if err := gocty.FromCtyValue(srcVal, &raw); err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsuitable value type",
			Detail:   fmt.Sprintf("Unsuitable value: %s", err.Error()),
			Subject:  expr.StartRange().Ptr(),
			Context:  expr.Range().Ptr(),
		})
		return diags
	}
	if raw&^uint32(os.ModePerm) != 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsuitable value type",
			Detail:   fmt.Sprintf("Unsuitable file mode value: %#o has bits outside of the permission mask", raw),
			Subject:  expr.StartRange().Ptr(),
			Context:  expr.Range().Ptr(),
		})
		return diags
	}

	switch v := val.(type) {
	case *os.FileMode:
		*v = os.FileMode(raw)
	case **os.FileMode:
		mode := os.FileMode(raw)
		*v = &mode
	default:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsuitable value type",
			Detail:   fmt.Sprintf("Cannot decode a file mode into %T", val),
			Subject:  expr.StartRange().Ptr(),
			Context:  expr.Range().Ptr(),
		})
	}

	return diags
}
