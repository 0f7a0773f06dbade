// Package authz chứa hai predicate phân quyền độc lập với nhau:
// phân cấp vai trò theo level (số càng nhỏ quyền càng cao) và
// kiểm tra permission string trên vai trò của actor.
package authz
