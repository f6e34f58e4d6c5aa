package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

// Parser 从分类页HTML中提取条目名称和下一页链接
type Parser struct {
	nextPageLabels []string
}

// NewParser 创建页面解析器。labels 为“下一页”链接的可见文本候选。
func NewParser(labels []string) *Parser {
	return &Parser{nextPageLabels: labels}
}

// ExtractNames 提取分类页中的条目名称。目标结构为 div#mw-pages 内
// div.mw-category-group 下的 li > a；没有分组时回退到 div.mw-category。
func (p *Parser) ExtractNames(content string) []string {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil
	}

	pages := findByID(root, "mw-pages")
	if pages == nil {
		return nil
	}

	var names []string
	groups := findAllByClass(pages, "div", "mw-category-group")
	if len(groups) == 0 {
		// 回退：部分页面不分组，条目直接挂在 div.mw-category 下
		if category := firstByClass(pages, "div", "mw-category"); category != nil {
			groups = []*html.Node{category}
		}
	}

	for _, group := range groups {
		walk(group, func(n *html.Node) {
			if n.Type != html.ElementNode || n.Data != "li" {
				return
			}
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				if child.Type == html.ElementNode && child.Data == "a" && attr(child, "title") != "" {
					if name := strings.TrimSpace(nodeText(child)); name != "" {
						names = append(names, name)
					}
					break
				}
			}
		})
	}
	return names
}

// NextPageURL 提取“下一页”链接并拼到 baseURL 上。跳过目录索引模块
// 里的链接；链接文本匹配但title不明确时，按分页查询参数兜底判断。
// 找不到时返回空串。
func (p *Parser) NextPageURL(content, baseURL string) string {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}

	var result string
	walk(root, func(n *html.Node) {
		if result != "" || n.Type != html.ElementNode || n.Data != "a" {
			return
		}

		text := strings.TrimSpace(nodeText(n))
		matched := false
		for _, label := range p.nextPageLabels {
			if text == label {
				matched = true
				break
			}
		}
		if !matched {
			return
		}

		href := strings.TrimSpace(attr(n, "href"))
		if href == "" {
			return
		}
		if insideCategoryIndex(n) {
			return
		}

		title := attr(n, "title")
		for _, label := range p.nextPageLabels {
			if title != "" && (strings.Contains(title, label) || strings.HasPrefix(title, "Категория:")) {
				result = baseURL + href
				return
			}
		}
		if title == "" && (strings.Contains(href, "pagefrom=") ||
			strings.Contains(href, "after=") || strings.Contains(href, "from=")) {
			result = baseURL + href
		}
	})
	return result
}

// insideCategoryIndex 判断链接是否位于分类目录索引模块内
func insideCategoryIndex(n *html.Node) bool {
	for parent := n.Parent; parent != nil; parent = parent.Parent {
		if parent.Type == html.ElementNode && parent.Data == "div" &&
			strings.Contains(attr(parent, "class"), "ts-module-Индекс_категории") {
			return true
		}
	}
	return false
}

// HTML遍历辅助

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findByID(n *html.Node, id string) *html.Node {
	var result *html.Node
	walk(n, func(node *html.Node) {
		if result == nil && node.Type == html.ElementNode && attr(node, "id") == id {
			result = node
		}
	})
	return result
}

func findAllByClass(n *html.Node, element, class string) []*html.Node {
	var result []*html.Node
	walk(n, func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == element && hasClass(node, class) {
			result = append(result, node)
		}
	})
	return result
}

func firstByClass(n *html.Node, element, class string) *html.Node {
	nodes := findAllByClass(n, element, class)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
	})
	return sb.String()
}
