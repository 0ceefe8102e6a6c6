package formstate

import (
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"
)

// Field multipart 中的一项，File 非空时为文件附件
type Field struct {
	Name  string
	Value string
	File  *File
}

// Payload 按提交顺序排列的 multipart 字段
type Payload struct {
	fields []Field
}

func (p *Payload) add(name, value string) {
	p.fields = append(p.fields, Field{Name: name, Value: value})
}

func (p *Payload) addFile(name string, f File) {
	p.fields = append(p.fields, Field{Name: name, File: &f})
}

// Fields 全部字段 (副本)
func (p Payload) Fields() []Field {
	return append([]Field(nil), p.fields...)
}

// Values 指定名称的文本值
func (p Payload) Values(name string) []string {
	var out []string
	for _, f := range p.fields {
		if f.Name == name && f.File == nil {
			out = append(out, f.Value)
		}
	}
	return out
}

// FieldValues 全部文本字段，按名称分组
func (p Payload) FieldValues() map[string][]string {
	out := make(map[string][]string)
	for _, f := range p.fields {
		if f.File == nil {
			out[f.Name] = append(out[f.Name], f.Value)
		}
	}
	return out
}

// Value 指定名称的第一个文本值
func (p Payload) Value(name string) (string, bool) {
	vals := p.Values(name)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Files 指定名称的文件附件
func (p Payload) Files(name string) []File {
	var out []File
	for _, f := range p.fields {
		if f.Name == name && f.File != nil {
			out = append(out, *f.File)
		}
	}
	return out
}

// Encode 写入 multipart
func (p Payload) Encode(w *multipart.Writer) error {
	for _, f := range p.fields {
		if f.File == nil {
			if err := w.WriteField(f.Name, f.Value); err != nil {
				return err
			}
			continue
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Name, f.File.Name))
		contentType := f.File.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.File.Data); err != nil {
			return err
		}
	}
	return nil
}

// ==================== 序列化 ====================

// Payload 把表单展开为提交字段
//
//	name, price, category, subcategory, description, numColorVariants
//	colorName{i}, colorStock{i}, colorImage{i}?, colorImages{i}*, existingColorImageIds{i}
func (f *Form) Payload() Payload {
	var p Payload
	p.add("name", f.basics.Name)
	p.add("price", f.basics.Price)
	p.add("category", f.basics.CategoryID)
	p.add("subcategory", f.basics.SubcategoryID)
	p.add("description", f.basics.Description)
	p.add("numColorVariants", strconv.Itoa(len(f.variants)))

	for i, v := range f.variants {
		name := v.ColorName
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Variant %d", i+1)
		}
		stock := v.Stock
		if stock == "" {
			stock = "0"
		}
		p.add("colorName"+strconv.Itoa(i), name)
		p.add("colorStock"+strconv.Itoa(i), stock)
		if v.ColorImage != nil {
			p.addFile("colorImage"+strconv.Itoa(i), *v.ColorImage)
		}

		existing := make([]string, 0, len(v.Images))
		for _, img := range v.Images {
			switch img := img.(type) {
			case PendingImage:
				p.addFile("colorImages"+strconv.Itoa(i), img.File)
			case PersistedImage:
				existing = append(existing, img.PublicID)
			}
		}
		p.add("existingColorImageIds"+strconv.Itoa(i), strings.Join(existing, ","))
	}
	return p
}
