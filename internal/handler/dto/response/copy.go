package response

import (
	"stayhub/internal/domain/pricing"

	"github.com/jinzhu/copier"
)

// copyOption maps entity getters onto response fields of the same name.
// Money renders as a fixed two-decimal string.
var copyOption = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: pricing.Money{},
			DstType: copier.String,
			Fn: func(src any) (any, error) {
				return src.(pricing.Money).String(), nil
			},
		},
	},
}

func copyFrom(dst, src any) error {
	return copier.CopyWithOption(dst, src, copyOption)
}
