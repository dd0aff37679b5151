package info

import (
	"fmt"
	"strings"
)

// String implements fmt.Stringer for AssetInfo
func (a AssetInfo) String() string {
	return fmt.Sprintf(
		"AssetInfo{\n"+
			"  Name:       %s\n"+
			"  SzDecimals: %d\n"+
			"  IsDelisted: %v\n"+
			"}",
		a.Name, a.SzDecimals, a.IsDelisted,
	)
}

// String implements fmt.Stringer for Meta
func (m Meta) String() string {
	return fmt.Sprintf(
		"Meta{\n"+
			"  Universe: %s\n"+
			"}",
		formatAssetInfoSlice(m.Universe),
	)
}

// String implements fmt.Stringer for SpotAssetInfo
func (s SpotAssetInfo) String() string {
	return fmt.Sprintf(
		"SpotAssetInfo{\n"+
			"  Name:        %s\n"+
			"  Tokens:      [%d, %d]\n"+
			"  Index:       %d\n"+
			"  IsCanonical: %v\n"+
			"}",
		s.Name, s.Tokens[0], s.Tokens[1], s.Index, s.IsCanonical,
	)
}

// String implements fmt.Stringer for SpotTokenInfo
func (s SpotTokenInfo) String() string {
	fullName := ""
	if s.FullName != nil {
		fullName = *s.FullName
	}
	evmContract := "<nil>"
	if s.EvmContract != nil {
		evmContract = indentString(s.EvmContract.String(), 2)
	}

	return fmt.Sprintf(
		"SpotTokenInfo{\n"+
			"  Name:        %s\n"+
			"  SzDecimals:  %d\n"+
			"  WeiDecimals: %d\n"+
			"  Index:       %d\n"+
			"  TokenId:     %s\n"+
			"  IsCanonical: %v\n"+
			"  EvmContract: %s\n"+
			"  FullName:    %s\n"+
			"}",
		s.Name, s.SzDecimals, s.WeiDecimals, s.Index, s.TokenId,
		s.IsCanonical, evmContract, fullName,
	)
}

// String implements fmt.Stringer for EvmContract
func (e EvmContract) String() string {
	return fmt.Sprintf(
		"EvmContract{\n"+
			"  Address:             %s\n"+
			"  EvmExtraWeiDecimals: %d\n"+
			"}",
		e.Address, e.EvmExtraWeiDecimals,
	)
}

// String implements fmt.Stringer for SpotMeta
func (s SpotMeta) String() string {
	return fmt.Sprintf(
		"SpotMeta{\n"+
			"  Universe: %s\n"+
			"  Tokens:   %s\n"+
			"}",
		formatSpotAssetInfoSlice(s.Universe),
		formatSpotTokenInfoSlice(s.Tokens),
	)
}

// String implements fmt.Stringer for PerpDexInfo
func (p PerpDexInfo) String() string {
	return fmt.Sprintf(
		"PerpDexInfo{\n"+
			"  Name:          %s\n"+
			"  FullName:      %s\n"+
			"  Deployer:      %s\n"+
			"  OracleUpdater: %s\n"+
			"}",
		p.Name, p.FullName, p.Deployer, p.OracleUpdater,
	)
}

func indentString(s string, spaces int64) string {
	indent := strings.Repeat(" ", int(spaces))
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func formatAssetInfoSlice(assets []AssetInfo) string {
	if len(assets) == 0 {
		return "[]"
	}
	var buf strings.Builder
	buf.WriteString("[\n")
	for i, asset := range assets {
		buf.WriteString(fmt.Sprintf("    %s", indentString(asset.String(), 4)))
		if i < len(assets)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("  ]")
	return buf.String()
}

func formatSpotAssetInfoSlice(assets []SpotAssetInfo) string {
	if len(assets) == 0 {
		return "[]"
	}
	var buf strings.Builder
	buf.WriteString("[\n")
	for i, asset := range assets {
		buf.WriteString(fmt.Sprintf("    %s", indentString(asset.String(), 4)))
		if i < len(assets)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("  ]")
	return buf.String()
}

func formatSpotTokenInfoSlice(tokens []SpotTokenInfo) string {
	if len(tokens) == 0 {
		return "[]"
	}
	var buf strings.Builder
	buf.WriteString("[\n")
	for i, token := range tokens {
		buf.WriteString(fmt.Sprintf("    %s", indentString(token.String(), 4)))
		if i < len(tokens)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("  ]")
	return buf.String()
}
