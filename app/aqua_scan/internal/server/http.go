package server

import (
	"context"
	"embed"
	"encoding/base64"
	"html/template"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/internal/service"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/config"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/dashboard"
	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

//go:embed assets/*
var assets embed.FS

var pageTmpl = template.Must(template.New("app.html").ParseFS(assets, "assets/app.html"))

// maxUpload 上传图片大小上限
const maxUpload = 16 << 20

// NewHTTPServer 创建 HTTP 服务：HTML 页面与 /api 下的 JSON 接口
func NewHTTPServer(c *config.Config, s *service.ScanService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c.Server.Addr != "" {
		opts = append(opts, http.Address(c.Server.Addr))
	}
	if c.Server.Timeout > 0 {
		opts = append(opts, http.Timeout(c.Server.Timeout))
	}

	srv := http.NewServer(opts...)
	registerAPI(srv, s)
	registerPages(srv, s, log.NewHelper(logger))
	return srv
}

// handler 让路由经过服务端中间件，返回值按 JSON 编码
func handler(operation string, fn func(ctx http.Context) (interface{}, error)) http.HandlerFunc {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, operation)
		h := ctx.Middleware(func(context.Context, interface{}) (interface{}, error) {
			return fn(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func registerAPI(srv *http.Server, s *service.ScanService) {
	r := srv.Route("/api")

	r.GET("/state", handler("/aquascan.v1.Scan/State", func(ctx http.Context) (interface{}, error) {
		return s.State(ctx), nil
	}))
	r.GET("/dashboard", handler("/aquascan.v1.Scan/Dashboard", func(ctx http.Context) (interface{}, error) {
		return s.Dashboard(ctx)
	}))
	r.GET("/history", handler("/aquascan.v1.Scan/History", func(ctx http.Context) (interface{}, error) {
		return s.History(ctx), nil
	}))
	r.GET("/map", handler("/aquascan.v1.Scan/Map", func(ctx http.Context) (interface{}, error) {
		return s.Map(ctx), nil
	}))
	r.GET("/map.geojson", handler("/aquascan.v1.Scan/GeoJSON", func(ctx http.Context) (interface{}, error) {
		return s.GeoJSON(ctx), nil
	}))
	r.GET("/hotspots", handler("/aquascan.v1.Scan/Hotspots", func(ctx http.Context) (interface{}, error) {
		return s.Hotspots(ctx), nil
	}))

	r.POST("/scan", handler("/aquascan.v1.Scan/Scan", func(ctx http.Context) (interface{}, error) {
		var req service.ScanRequest
		if err := ctx.Bind(&req); err != nil {
			return nil, err
		}
		return s.Scan(ctx, &req)
	}))
	r.POST("/navigate", handler("/aquascan.v1.Scan/Navigate", func(ctx http.Context) (interface{}, error) {
		var req struct {
			View string `json:"view"`
		}
		if err := ctx.Bind(&req); err != nil {
			return nil, err
		}
		return s.Navigate(ctx, req.View)
	}))
	r.POST("/history/{id}/select", handler("/aquascan.v1.Scan/Select", func(ctx http.Context) (interface{}, error) {
		return s.Select(ctx, ctx.Vars().Get("id"))
	}))
	r.POST("/language", handler("/aquascan.v1.Scan/SetLanguage", func(ctx http.Context) (interface{}, error) {
		var req struct {
			Language string `json:"language"`
		}
		if err := ctx.Bind(&req); err != nil {
			return nil, err
		}
		return s.SetLanguage(ctx, req.Language)
	}))
}

// page 页面模板数据
type page struct {
	*service.StateReply
	Dashboard *dashboard.View
	Defaults  dm.DroneData
}

func registerPages(srv *http.Server, s *service.ScanService, logh *log.Helper) {
	render := func(w nethttp.ResponseWriter, r *nethttp.Request) {
		p := page{StateReply: s.State(r.Context()), Defaults: dm.DefaultDroneData()}
		if v, err := s.Dashboard(r.Context()); err == nil {
			p.Dashboard = v
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTmpl.Execute(w, p); err != nil {
			logh.Errorf("render page: %v", err)
		}
	}
	back := func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Redirect(w, r, "/", nethttp.StatusSeeOther)
	}
	post := func(fn func(w nethttp.ResponseWriter, r *nethttp.Request)) func(nethttp.ResponseWriter, *nethttp.Request) {
		return func(w nethttp.ResponseWriter, r *nethttp.Request) {
			if r.Method != nethttp.MethodPost {
				nethttp.Error(w, "method not allowed", nethttp.StatusMethodNotAllowed)
				return
			}
			fn(w, r)
			back(w, r)
		}
	}

	srv.HandleFunc("/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/" {
			nethttp.NotFound(w, r)
			return
		}
		render(w, r)
	})

	// 页面操作的错误已经体现在会话提示中，这里只记录日志
	srv.HandleFunc("/scan", post(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		req, err := scanForm(r)
		if err != nil {
			logh.Warnf("invalid scan form: %v", err)
		}
		if _, err := s.Scan(r.Context(), req); err != nil {
			logh.Warnf("scan: %v", err)
		}
	}))
	srv.HandleFunc("/navigate", post(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if _, err := s.Navigate(r.Context(), r.FormValue("view")); err != nil {
			logh.Debugf("navigate: %v", err)
		}
	}))
	srv.HandleFunc("/select", post(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if _, err := s.Select(r.Context(), r.FormValue("id")); err != nil {
			logh.Debugf("select: %v", err)
		}
	}))
	srv.HandleFunc("/language", post(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if _, err := s.SetLanguage(r.Context(), r.FormValue("language")); err != nil {
			logh.Debugf("language: %v", err)
		}
	}))
}

// scanForm 解析页面表单：mode=image 上传照片，mode=manual 填写读数
// 解析失败时返回空请求，由分析流程给出输入错误提示
func scanForm(r *nethttp.Request) (*service.ScanRequest, error) {
	req := &service.ScanRequest{}
	if err := r.ParseMultipartForm(maxUpload); err != nil && err != nethttp.ErrNotMultipart {
		return req, err
	}

	if lat, lng := r.FormValue("latitude"), r.FormValue("longitude"); lat != "" && lng != "" {
		la, err1 := strconv.ParseFloat(lat, 64)
		ln, err2 := strconv.ParseFloat(lng, 64)
		if err1 == nil && err2 == nil {
			req.Location = &dm.Location{Latitude: la, Longitude: ln}
		}
	}

	switch r.FormValue("mode") {
	case "image":
		if v := strings.TrimSpace(r.FormValue("image")); v != "" {
			req.Image = v
			return req, nil
		}
		f, _, err := r.FormFile("photo")
		if err != nil {
			return req, err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxUpload))
		if err != nil {
			return req, err
		}
		req.Image = base64.StdEncoding.EncodeToString(data)
	case "manual":
		d := dm.DefaultDroneData()
		var err error
		if d.PH, err = formFloat(r, "pH", d.PH); err != nil {
			return req, err
		}
		if d.TDS, err = formFloat(r, "tds", d.TDS); err != nil {
			return req, err
		}
		if d.Chlorine, err = formFloat(r, "chlorine", d.Chlorine); err != nil {
			return req, err
		}
		if v := r.FormValue("turbidity"); v != "" {
			d.Turbidity = v
		}
		req.Manual = &d
	}
	return req, nil
}

func formFloat(r *nethttp.Request, key string, def float64) (float64, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}
