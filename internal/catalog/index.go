package catalog

import (
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal/util"
)

// Index precomputes the normalized forms the cruise matcher scores against
// so matching N line items against M products does not re-normalize M
// names N times.
type Index struct {
	Products []internal.ProductRow
	ByCode   map[string][]int

	NormEN   []string
	NormJP   []string
	TokensEN [][]string
	TokensJP [][]string
}

func BuildIndex(products []internal.ProductRow) *Index {
	idx := &Index{
		Products: products,
		ByCode:   map[string][]int{},
		NormEN:   make([]string, len(products)),
		NormJP:   make([]string, len(products)),
		TokensEN: make([][]string, len(products)),
		TokensJP: make([][]string, len(products)),
	}

	for i, p := range products {
		idx.NormEN[i] = util.NormalizeName(p.NameEN)
		idx.TokensEN[i] = util.Tokenize(p.NameEN)
		if p.NameJP != nil {
			idx.NormJP[i] = util.NormalizeName(*p.NameJP)
			idx.TokensJP[i] = util.Tokenize(*p.NameJP)
		}
		if p.Code != nil {
			if norm := util.NormalizeCode(*p.Code); norm != "" {
				idx.ByCode[norm] = append(idx.ByCode[norm], i)
			}
		}
	}

	return idx
}
