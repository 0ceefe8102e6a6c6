package main

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"storefront_202610/pkg/console"
	"storefront_202610/pkg/formstate"
)

func productCommand() *cli.Command {
	return &cli.Command{
		Name:  "product",
		Usage: "商品查看与编辑",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "打印商品及其颜色变体",
				ArgsUsage: "<id>",
				Action:    showProduct,
			},
			{
				Name:      "edit",
				Usage:     "修改颜色变体并提交",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "product-name", Usage: "商品名称"},
					&cli.StringFlag{Name: "price", Usage: "价格，如 25.99"},
					&cli.IntFlag{Name: "add-variant", Usage: "追加空白变体的数量"},
					&cli.IntSliceFlag{Name: "remove-variant", Usage: "删除指定下标的变体 (可重复)"},
					&cli.StringSliceFlag{Name: "name", Usage: "v:颜色名称"},
					&cli.StringSliceFlag{Name: "stock", Usage: "v:库存"},
					&cli.StringSliceFlag{Name: "color-image", Usage: "v:本地图片路径"},
					&cli.StringSliceFlag{Name: "add-images", Usage: "v:路径1,路径2"},
					&cli.StringSliceFlag{Name: "remove-image", Usage: "v:图片下标"},
					&cli.StringSliceFlag{Name: "set-default", Usage: "v:图片下标"},
					&cli.BoolFlag{Name: "dry-run", Usage: "只打印提交字段"},
				},
				Action: editProduct,
			},
		},
	}
}

func showProduct(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("缺少商品 ID")
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	p, err := client.FetchProduct(c.Context, id)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "#%d %s  ₹%.2f  库存 %d\n", p.ID, p.Name, p.Price, p.TotalStock)
	for i, color := range p.Colors {
		fmt.Fprintf(w, "  [%d] %s  stock=%d\n", i, color.ColorName, color.Stock)
		if color.ColorImage != nil {
			fmt.Fprintf(w, "      color image: %s\n", color.ColorImage.URL)
		}
		for j, ph := range color.Photos {
			mark := " "
			if j == 0 {
				mark = "*"
			}
			fmt.Fprintf(w, "    %s %d. %s (%s)\n", mark, j, ph.URL, ph.PublicID)
		}
	}
	return nil
}

func editProduct(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("缺少商品 ID")
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}

	navigated := make(chan string, 1)
	editor := console.NewProductEditor(client, console.EditorOptions{
		Navigate: func(path string) { navigated <- path },
		Logger:   cliLogger(),
	})
	defer editor.Close()

	if err := editor.Mount(c.Context, id); err != nil {
		return err
	}
	if err := applyEdits(c, editor.Form(), fileSystem()); err != nil {
		return err
	}

	if c.Bool("dry-run") {
		for _, f := range editor.Form().Payload().Fields() {
			if f.File != nil {
				fmt.Fprintf(c.App.Writer, "%s=@%s (%d bytes)\n", f.Name, f.File.Name, len(f.File.Data))
				continue
			}
			fmt.Fprintf(c.App.Writer, "%s=%s\n", f.Name, f.Value)
		}
		return nil
	}

	_, submitErr := editor.Submit(c.Context)
	if n := editor.Notice(); n != nil {
		fmt.Fprintln(c.App.Writer, n.Message)
	}
	if submitErr != nil {
		return submitErr
	}

	select {
	case path := <-navigated:
		fmt.Fprintf(c.App.Writer, "-> %s\n", path)
	case <-time.After(console.DefaultNavigateDelay + time.Second):
	case <-c.Context.Done():
	}
	return nil
}

// applyEdits 按固定顺序应用命令行参数:
// 基本信息 -> 新增变体 -> 删除变体 -> 名称/库存 -> 主图 -> 图库 -> 删除图片 -> 默认图
func applyEdits(c *cli.Context, form *formstate.Form, fs afero.Fs) error {
	basics := form.Basics()
	if c.IsSet("product-name") {
		basics.Name = c.String("product-name")
	}
	if c.IsSet("price") {
		basics.Price = c.String("price")
	}
	form.SetBasics(basics)

	for i := 0; i < c.Int("add-variant"); i++ {
		form.AddVariant()
	}

	// 从大到小删除，避免下标漂移
	removals := append([]int(nil), c.IntSlice("remove-variant")...)
	sort.Sort(sort.Reverse(sort.IntSlice(removals)))
	for _, i := range removals {
		if err := form.RemoveVariant(i); err != nil {
			return fmt.Errorf("删除变体 %d: %w", i, err)
		}
	}

	for _, raw := range c.StringSlice("name") {
		v, name, err := parseIndexed(raw)
		if err != nil {
			return err
		}
		if err := form.SetColorName(v, name); err != nil {
			return err
		}
	}
	for _, raw := range c.StringSlice("stock") {
		v, stock, err := parseIndexed(raw)
		if err != nil {
			return err
		}
		if err := form.SetStock(v, stock); err != nil {
			return fmt.Errorf("变体 %d 库存: %w", v, err)
		}
	}

	for _, raw := range c.StringSlice("color-image") {
		v, path, err := parseIndexed(raw)
		if err != nil {
			return err
		}
		f, err := readLocalFile(fs, path)
		if err != nil {
			return err
		}
		if err := form.ReplaceDedicatedImage(v, f); err != nil {
			return err
		}
	}

	for _, raw := range c.StringSlice("add-images") {
		v, list, err := parseIndexed(raw)
		if err != nil {
			return err
		}
		var files []formstate.File
		for _, path := range strings.Split(list, ",") {
			if path = strings.TrimSpace(path); path == "" {
				continue
			}
			f, err := readLocalFile(fs, path)
			if err != nil {
				return err
			}
			files = append(files, f)
		}
		if err := form.AppendGalleryImages(v, files...); err != nil {
			return err
		}
	}

	for _, raw := range c.StringSlice("remove-image") {
		v, idx, err := parseIndexPair(raw)
		if err != nil {
			return err
		}
		if err := form.RemoveImage(v, idx); err != nil {
			return err
		}
	}

	for _, raw := range c.StringSlice("set-default") {
		v, idx, err := parseIndexPair(raw)
		if err != nil {
			return err
		}
		if err := form.SetDefault(v, idx); err != nil {
			return err
		}
	}
	return nil
}

// parseIndexed "1:Red" -> (1, "Red")
func parseIndexed(raw string) (int, string, error) {
	head, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, "", fmt.Errorf("参数格式应为 v:value: %q", raw)
	}
	v, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || v < 0 {
		return 0, "", fmt.Errorf("无效的变体下标: %q", raw)
	}
	return v, rest, nil
}

// parseIndexPair "0:2" -> (0, 2)
func parseIndexPair(raw string) (int, int, error) {
	v, rest, err := parseIndexed(raw)
	if err != nil {
		return 0, 0, err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || idx < 0 {
		return 0, 0, fmt.Errorf("无效的图片下标: %q", raw)
	}
	return v, idx, nil
}

func readLocalFile(fs afero.Fs, path string) (formstate.File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return formstate.File{}, fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	name := filepath.Base(path)
	return formstate.File{
		Name:        name,
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		Data:        data,
	}, nil
}
