package http

import (
	"go.uber.org/fx"

	categorytransport "github.com/cafeworks/espresso/internal/transport/http/category"
	dishtransport "github.com/cafeworks/espresso/internal/transport/http/dish"
	ordertransport "github.com/cafeworks/espresso/internal/transport/http/order"
	orderitemtransport "github.com/cafeworks/espresso/internal/transport/http/orderitem"
	promotiontransport "github.com/cafeworks/espresso/internal/transport/http/promotion"
	tabletransport "github.com/cafeworks/espresso/internal/transport/http/table"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	tabletransport.Module,
	categorytransport.Module,
	dishtransport.Module,
	promotiontransport.Module,
	ordertransport.Module,
	orderitemtransport.Module,
)
