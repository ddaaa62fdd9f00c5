package react

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMetadataXML = `<metadata>
  <tables>
    <table name="customers">customer master data</table>
    <table name="orders"></table>
  </tables>
  <columns>
    <column table="customers" name="id" type="bigint">primary key</column>
    <column table="orders" name="customer_id" type="bigint"></column>
  </columns>
  <values>
    <value table="orders" column="status">shipped</value>
  </values>
  <relationships>
    <relationship from_table="orders" from_column="customer_id" to_table="customers" to_column="id"></relationship>
  </relationships>
  <constraints>
    <constraint table="orders" column="status" type="check">status in ('open', 'shipped')</constraint>
  </constraints>
</metadata>`

func TestParseMetadataXML(t *testing.T) {
	items, err := ParseMetadataXML(sampleMetadataXML)
	require.NoError(t, err)
	require.Len(t, items, 7)

	assert.Equal(t, MetadataItem{Kind: MetadataTable, Table: "customers", Description: "customer master data"}, items[0])
	assert.Equal(t, MetadataItem{Kind: MetadataTable, Table: "orders"}, items[1])
	assert.Equal(t, MetadataItem{Kind: MetadataColumn, Table: "customers", Column: "id", DataType: "bigint", Description: "primary key"}, items[2])
	assert.Equal(t, MetadataItem{Kind: MetadataValue, Table: "orders", Column: "status", Value: "shipped"}, items[4])
	assert.Equal(t, MetadataItem{Kind: MetadataRelationship, Table: "orders", Column: "customer_id", ToTable: "customers", ToColumn: "id"}, items[5])
	assert.Equal(t, MetadataItem{Kind: MetadataConstraint, Table: "orders", Column: "status", DataType: "check", Description: "status in ('open', 'shipped')"}, items[6])
}

func TestParseMetadataXMLEmpty(t *testing.T) {
	items, err := ParseMetadataXML("")
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestParseMetadataXMLMalformed(t *testing.T) {
	_, err := ParseMetadataXML("<metadata><tables><table")
	assert.Error(t, err)
}

func TestMetadataSetDeduplicates(t *testing.T) {
	var set MetadataSet

	set.Add(MetadataItem{Kind: MetadataTable, Table: "customers"})
	set.Add(MetadataItem{Kind: MetadataColumn, Table: "customers", Column: "id", DataType: "int"})
	set.Add(MetadataItem{Kind: MetadataColumn, Table: "customers", Column: "id", DataType: "bigint"})

	require.Equal(t, 2, set.Len())
	cols := set.ByKind(MetadataColumn)
	require.Len(t, cols, 1)
	assert.Equal(t, "bigint", cols[0].DataType)
}

func TestMetadataSetReplace(t *testing.T) {
	var set MetadataSet
	set.Add(MetadataItem{Kind: MetadataTable, Table: "old"})

	set.Replace([]MetadataItem{
		{Kind: MetadataTable, Table: "new"},
		{Kind: MetadataValue, Table: "new", Column: "c", Value: "v"},
	})

	require.Equal(t, 2, set.Len())
	assert.Equal(t, "new", set.Items()[0].Table)
	assert.Empty(t, set.ByKind(MetadataColumn))
}

func TestDecodeLine(t *testing.T) {
	ev, err := DecodeLine([]byte(`{"event":"section_delta","iteration":2,"section":"reasoning","delta":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, EventSectionDelta, ev.Event)
	assert.Equal(t, 2, ev.Iteration)
	assert.Equal(t, "abc", ev.Delta)

	_, err = DecodeLine([]byte(`{"iteration":2}`))
	assert.Error(t, err)

	_, err = DecodeLine([]byte(`not json`))
	assert.Error(t, err)
}
