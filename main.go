package main

import (
	"context"
	"fmt"
	"net/http/httptest"

	"github.com/raysh454/hybridhttp/internal/app"
	"github.com/raysh454/hybridhttp/internal/demoserver"
	"github.com/raysh454/hybridhttp/internal/logging"
	"github.com/raysh454/hybridhttp/internal/model"
)

func main() {
	server := httptest.NewServer(demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler())
	defer server.Close()

	cfg := app.DefaultConfig()
	cfg.DocumentURL = server.URL + "/"
	pc, err := app.NewPluginComponents(cfg, logging.NewStdoutLogger("demo").WithLevel(logging.LevelWarn))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer pc.Close()

	ctx := context.Background()
	p := pc.Plugin

	resp, err := p.Get(ctx, &model.HttpOptions{
		URL:    server.URL + "/echo",
		Params: map[string]model.ParamValue{"q": {"go", "http"}},
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("get: status=%d data=%v\n", resp.Status, resp.Data)

	p.SetCookie(ctx, "session", "s3cr3t value", nil)
	if _, err := p.Get(ctx, &model.HttpOptions{URL: server.URL + "/cookies/set?theme=dark"}); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
	if cookies, err := p.GetCookies(ctx); err == nil {
		fmt.Printf("cookies: %v\n", cookies.Cookies)
	}

	up, err := p.UploadFile(ctx, &model.HttpUploadFileOptions{
		HttpOptions: model.HttpOptions{URL: server.URL + "/upload"},
		Name:        "file",
		Blob:        &model.Blob{Data: []byte("hello upload"), Type: "text/plain"},
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("upload: status=%d data=%v\n", up.Status, up.Data)

	dl, err := p.DownloadFile(ctx, &model.HttpDownloadFileOptions{
		HttpOptions: model.HttpOptions{URL: server.URL + "/download/4096"},
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("download: %d bytes of %s\n", dl.Blob.Size(), dl.Blob.Type)
}
