package dom

import "github.com/RecoveryAshes/PageTreeShot/internal/models"

// Leaves 按深度优先顺序收集叶子节点
//
// 没有子节点的节点在包围盒四个分量都严格大于0时入选;
// 有子节点的节点自身从不入选,只递归其子节点。
func Leaves(root *models.Node) []*models.Node {
	var leaves []*models.Node
	collectLeaves(root, &leaves)
	return leaves
}

func collectLeaves(node *models.Node, leaves *[]*models.Node) {
	if node == nil {
		return
	}
	if node.IsLeaf() {
		*leaves = append(*leaves, node)
		return
	}
	for _, child := range node.Children {
		collectLeaves(child, leaves)
	}
}
