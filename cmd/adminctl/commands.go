package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"storefront_202610/pkg/console"
)

// ==================== login ====================

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "登录并保存 Token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, EnvVars: []string{"SHOP_ADMIN_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			s, err := client.Login(c.Context, c.String("username"), c.String("password"))
			if err != nil {
				return err
			}
			if err := prefsStore(c).Set(keyAccessToken, s.AccessToken); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "已登录: %s (%s)，有效期至 %s\n",
				s.User.Username, s.User.Role, s.ExpiresAt.Local().Format(time.DateTime))
			return nil
		},
	}
}

// ==================== dashboard ====================

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "打印仪表盘",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "feed", Value: "static", Usage: "动态流来源: static | api"},
			&cli.StringFlag{Name: "html", Usage: "把 Revenue vs Orders 图表写入该文件"},
		},
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}

			var feed console.FeedSource
			switch c.String("feed") {
			case "api":
				feed = console.APIFeed{Client: client}
			case "static":
				feed = console.DefaultFeed(time.Now())
			default:
				return fmt.Errorf("未知的 feed: %s", c.String("feed"))
			}

			d := console.NewDashboard(client, feed, cliLogger())
			d.Mount(c.Context)
			d.Wait()

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			printCards(w, d)
			printBars(w, d.Bar.Snapshot())
			printBreakdown(w, d)
			printFeed(w, d)
			if err := w.Flush(); err != nil {
				return err
			}

			if out := c.String("html"); out != "" {
				theme, err := preferences(c).Theme()
				if err != nil {
					return err
				}
				html, err := d.BarChartHTML(theme == console.ThemeDark)
				if err != nil {
					return err
				}
				if err := afero.WriteFile(fileSystem(), out, []byte(html), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "图表已写入 %s\n", out)
			}
			return nil
		},
	}
}

func printCards(w *tabwriter.Writer, d *console.Dashboard) {
	st := d.Stats.Snapshot()
	fmt.Fprintln(w, "== 概览 ==")
	cards := d.Cards()
	if cards == nil {
		fmt.Fprintf(w, "(%s)\n", sectionStatus(st.Status, st.Err))
		return
	}
	for _, card := range cards {
		fmt.Fprintf(w, "%s\t%s%s\t%s\n", card.Label, card.Prefix, card.Value, card.Badge)
	}
}

func printBars(w *tabwriter.Writer, st console.State[*console.BarCharts]) {
	fmt.Fprintln(w, "\n== Revenue vs Orders ==")
	if st.Data == nil || len(st.Data.Months) == 0 {
		fmt.Fprintf(w, "(%s)\n", sectionStatus(st.Status, st.Err))
		return
	}
	fmt.Fprintln(w, "Month\tRevenue\tOrders")
	for i, m := range st.Data.Months {
		var rev float64
		var orders int64
		if i < len(st.Data.Revenue) {
			rev = st.Data.Revenue[i]
		}
		if i < len(st.Data.Orders) {
			orders = st.Data.Orders[i]
		}
		fmt.Fprintf(w, "%s\t%.2f\t%d\n", m, rev, orders)
	}
}

func printBreakdown(w *tabwriter.Writer, d *console.Dashboard) {
	fmt.Fprintln(w, "\n== Inventory Breakdown ==")
	entries := d.Breakdown()
	if len(entries) == 0 {
		st := d.Pie.Snapshot()
		fmt.Fprintf(w, "(%s)\n", sectionStatus(st.Status, st.Err))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%.1f%%\n", e.Label, e.Percent)
	}
}

func printFeed(w *tabwriter.Writer, d *console.Dashboard) {
	now := time.Now()
	fmt.Fprintln(w, "\n== Activity ==")
	for _, a := range d.Activity.Snapshot().Data {
		fmt.Fprintf(w, "%s %s %s\t%s\n", a.User, a.Action, a.Item, console.Ago(a.At, now))
	}
	fmt.Fprintln(w, "\n== Recent Users ==")
	for _, u := range d.Users.Snapshot().Data {
		fmt.Fprintf(w, "%s\t%s\n", u.Name, u.Role)
	}
}

func sectionStatus(s console.Status, err error) string {
	if err != nil {
		return "加载失败: " + err.Error()
	}
	if s == console.StatusReady {
		return "暂无数据"
	}
	return s.String()
}

// ==================== banners ====================

func bannersCommand() *cli.Command {
	return &cli.Command{
		Name:  "banners",
		Usage: "打印首页轮播图",
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			carousel := console.NewCarousel(client, 0, cliLogger())
			carousel.Mount(c.Context)

			v := carousel.View()
			if v.Skeleton {
				fmt.Fprintln(c.App.Writer, "[skeleton]")
				return nil
			}
			for i, s := range v.Slides {
				marker := " "
				if i == v.Active {
					marker = "*"
				}
				fmt.Fprintf(c.App.Writer, "%s %d. %s  %s\n", marker, i+1, s.Alt, s.URL)
			}
			return nil
		},
	}
}

// ==================== prefs ====================

func prefsCommand() *cli.Command {
	return &cli.Command{
		Name:  "prefs",
		Usage: "查看或修改本地偏好",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "打印 theme 与 sidebarCollapsed",
				Action: func(c *cli.Context) error {
					p := preferences(c)
					theme, err := p.Theme()
					if err != nil {
						return err
					}
					collapsed, err := p.SidebarCollapsed()
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "theme=%s\nsidebarCollapsed=%t\n", theme, collapsed)
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "修改偏好",
				ArgsUsage: "theme <light|dark> | sidebar <true|false>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return errors.New("用法: prefs set theme <light|dark> | sidebar <true|false>")
					}
					p := preferences(c)
					p.Subscribe(func(ch console.Change) {
						fmt.Fprintf(c.App.Writer, "%s=%s\n", ch.Key, ch.Value)
					})

					key, value := c.Args().Get(0), c.Args().Get(1)
					switch key {
					case "theme":
						return p.SetTheme(value)
					case "sidebar":
						collapsed, err := strconv.ParseBool(value)
						if err != nil {
							return fmt.Errorf("sidebar 只接受 true/false: %w", err)
						}
						return p.SetSidebarCollapsed(collapsed)
					default:
						return fmt.Errorf("未知的偏好: %s", key)
					}
				},
			},
			{
				Name:  "toggle-theme",
				Usage: "切换深浅主题",
				Action: func(c *cli.Context) error {
					next, err := preferences(c).ToggleTheme()
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "theme=%s\n", next)
					return nil
				},
			},
		},
	}
}
