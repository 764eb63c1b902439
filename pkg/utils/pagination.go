package utils

// Pagination 分页请求参数
type Pagination struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// PageResult 分页响应结果
type PageResult struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// GetPageOffset 计算分页偏移量
func (p *Pagination) GetPageOffset() (int, int) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return (p.Page - 1) * p.Limit, p.Limit
}

// SortClause 将请求的排序字段映射为 SQL 排序子句
// 只接受白名单中的字段，防止排序参数注入
func SortClause(sortBy, order string, allowed map[string]string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = allowed["default"]
	}
	if order != "asc" {
		order = "desc"
	}
	return column + " " + order
}
