package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/internal/service"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/internal/shell"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/analyzer"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/geo"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/hotspot"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/storage"
)

// ProviderSet 是 AquaScan 服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,

	// Data providers
	NewStore,
	NewGeoAdapter,
	analyzer.NewChatModel,
	analyzer.New,
	hotspot.NewRenderer,

	// Shell / Service providers
	shell.NewShell,
	service.NewScanService,

	wire.Bind(new(shell.Analyzer), new(*analyzer.Analyzer)),
	wire.Bind(new(shell.Locator), new(*geo.Adapter)),
	wire.Bind(new(shell.Store), new(*storage.Store)),
)
