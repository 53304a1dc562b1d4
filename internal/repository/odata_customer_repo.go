package repository

import (
	"log/slog"

	"github.com/hitoshi/dynabridge/internal/odata"
)

const (
	// customerEntitySet は顧客マスタのODataエンティティセット名。
	customerEntitySet = "CustomersV3"
	// customerAccountField は顧客の口座識別フィールド名。
	customerAccountField = "CustomerAccount"
)

// ODataCustomerRepo はCustomerRepositoryのOData実装。
type ODataCustomerRepo struct {
	ODataEntityRepo
}

// NewODataCustomerRepo はODataCustomerRepoを生成する。
func NewODataCustomerRepo(requester odata.PageRequester, aggregator *odata.Aggregator, logger *slog.Logger) *ODataCustomerRepo {
	return &ODataCustomerRepo{
		ODataEntityRepo: ODataEntityRepo{
			requester:    requester,
			aggregator:   aggregator,
			logger:       logger,
			entitySet:    customerEntitySet,
			accountField: customerAccountField,
		},
	}
}
