package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"storefront_202610/pkg/console"
	"storefront_202610/pkg/logger"
)

const keyAccessToken = "accessToken"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "adminctl",
		Usage: "storefront 管理后台命令行",
		// --add-images 的值本身用逗号分隔多个路径
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:8080", EnvVars: []string{"SHOP_ADMIN_URL"}, Usage: "后台地址"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"SHOP_ADMIN_TOKEN"}, Usage: "Bearer Token，缺省时读取 login 保存的值"},
			&cli.StringFlag{Name: "prefs", Value: defaultPrefsPath(), EnvVars: []string{"SHOP_ADMIN_PREFS"}, Usage: "本地偏好文件"},
			&cli.BoolFlag{Name: "system-dark", EnvVars: []string{"SHOP_SYSTEM_DARK"}, Usage: "系统偏好深色主题"},
			&cli.IntFlag{Name: "viewport-width", Value: 1440, Usage: "视口宽度，用于侧边栏默认状态"},
			&cli.BoolFlag{Name: "debug", Usage: "打印请求日志"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				if _, err := logger.Init(true); err != nil {
					return err
				}
			}
			return nil
		},
		After: func(c *cli.Context) error {
			logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			loginCommand(),
			dashboardCommand(),
			bannersCommand(),
			prefsCommand(),
			productCommand(),
		},
	}
}

// ==================== 公共依赖 ====================

func fileSystem() afero.Fs { return afero.NewOsFs() }

func prefsStore(c *cli.Context) *console.FileStore {
	return console.NewFileStore(fileSystem(), c.String("prefs"))
}

func preferences(c *cli.Context) *console.Preferences {
	return console.NewPreferences(prefsStore(c), console.Environment{
		SystemPrefersDark: c.Bool("system-dark"),
		ViewportWidth:     c.Int("viewport-width"),
	})
}

func newClient(c *cli.Context) (*console.Client, error) {
	token := c.String("token")
	if token == "" {
		saved, _, err := prefsStore(c).Get(keyAccessToken)
		if err != nil {
			return nil, err
		}
		token = saved
	}
	return console.NewClient(console.ClientOptions{
		BaseURL: c.String("server"),
		Token:   token,
		Debug:   c.Bool("debug"),
		Logger:  logger.Named("Console"),
	}), nil
}

func cliLogger() *zap.Logger { return logger.Named("adminctl") }

func defaultPrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront-prefs.json"
	}
	return filepath.Join(home, ".storefront", "prefs.json")
}
