package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<form id="form1">
	<div id="ContentPlaceHolder1_ResultPanel">
		<div class="lit-container"><span class="litc">1234</span></div>
		<div class="lit-container"><span class="litc">5678</span></div>
	</div>
	<div id="ContentPlaceHolder1_FormMessagePanel" style="display:none">
		<div class="w3-panel w3-pale-red">hidden message</div>
	</div>
</form>
</body></html>`

func TestTree(t *testing.T) {
	tree, err := Parse(strings.NewReader(page))
	require.NoError(t, err)

	require.True(t, tree.Has("ContentPlaceHolder1_ResultPanel"))
	require.False(t, tree.Has("missing"))

	results, ok := tree.ByID("ContentPlaceHolder1_ResultPanel")
	require.True(t, ok)
	require.True(t, results.Visible())

	containers := results.ByClass("lit-container")
	require.Len(t, containers, 2)

	first, ok := containers[0].Find(".litc")
	require.True(t, ok)
	require.Equal(t, "1234", first.Text())

	_, ok = containers[0].Find(".missing")
	require.False(t, ok)

	message, ok := tree.ByID("ContentPlaceHolder1_FormMessagePanel")
	require.True(t, ok)
	require.False(t, message.Visible())

	banner, ok := message.Find(".w3-panel.w3-pale-red")
	require.True(t, ok)
	require.False(t, banner.Visible())

	require.Contains(t, tree.HTML(), "lit-container")
}

func TestZeroNode(t *testing.T) {
	var n Node
	require.False(t, n.Exists())
	require.False(t, n.Visible())
	require.Equal(t, "", n.Text())
	require.Nil(t, n.FindAll("div"))
	_, ok := n.Find("div")
	require.False(t, ok)
}
