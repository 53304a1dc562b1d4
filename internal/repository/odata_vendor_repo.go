package repository

import (
	"log/slog"

	"github.com/hitoshi/dynabridge/internal/odata"
)

const (
	// vendorEntitySet は仕入先マスタのODataエンティティセット名。
	vendorEntitySet = "VendorsV3"
	// vendorAccountField は仕入先の口座識別フィールド名。
	vendorAccountField = "VendorAccountNumber"
)

// ODataVendorRepo はVendorRepositoryのOData実装。
type ODataVendorRepo struct {
	ODataEntityRepo
}

// NewODataVendorRepo はODataVendorRepoを生成する。
func NewODataVendorRepo(requester odata.PageRequester, aggregator *odata.Aggregator, logger *slog.Logger) *ODataVendorRepo {
	return &ODataVendorRepo{
		ODataEntityRepo: ODataEntityRepo{
			requester:    requester,
			aggregator:   aggregator,
			logger:       logger,
			entitySet:    vendorEntitySet,
			accountField: vendorAccountField,
		},
	}
}
