// Package agegraph provides a Go client for administering and querying
// Apache AGE graphs stored in PostgreSQL.
//
// # Quick Start
//
// Connect, make sure the extension is installed, then work with a graph:
//
//	ctx := context.Background()
//
//	client, err := agegraph.Connect(ctx, &agegraph.Options{
//	    Host:     "localhost",
//	    Password: "password",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	graph := client.SelectGraph("social")
//	if err := graph.Create(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Parameters are bound, never spliced into the query text
//	result, err := graph.Query(ctx,
//	    "MATCH (p:Person) WHERE p.age > $minAge RETURN p.name, p.age",
//	    &agegraph.QueryOptions{
//	        Params: map[string]interface{}{"minAge": 20},
//	        Columns: []agegraph.Column{
//	            {Name: "name", Type: agegraph.TypeString},
//	            {Name: "age", Type: agegraph.TypeInteger},
//	        },
//	    },
//	)
//
//	for _, row := range result.Rows {
//	    fmt.Printf("%s is %d years old\n", row.String("name"), row.Int("age"))
//	}
//
// # Result Columns
//
// AGE requires every cypher() call to declare its result columns. Declare
// them with [QueryOptions.Columns]. Each value is decoded from agtype and
// checked against its [ValueType]. Queries that declare no columns return a
// single column named "result" holding any value.
//
// # Graph Operations
//
// The [Client] provides lifecycle operations ([Client.CreateGraph],
// [Client.DropGraph], [Client.ListGraphs]). The [Graph] handle adds
// [Graph.Exists] and [Graph.Labels].
//
// For transactions or batches on one connection use [Client.Acquire] or
// [Client.WithTx].
//
// # Data Types
//
// Query results contain Go representations of agtype values:
//
//   - [Vertex]: Graph nodes with a label and properties
//   - [Edge]: Relationships with a label, endpoints and properties
//   - [Path]: Alternating vertices and edges
//   - [Numeric]: Exact decimals kept as text
//
// # Errors
//
// Errors returned by this package are [*Error] values. Test the kind with
// errors.Is, for example errors.Is(err, agegraph.ErrNotFound).
//
// # Thread Safety
//
// [Client] and [Graph] are safe for concurrent use. [Conn] and [Tx] are not.
package agegraph
