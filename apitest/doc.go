// Package apitest calls an in-process HTTP application and asserts on its JSON-LD/Hydra responses.
//
// A Client wraps the application handler:
//
//	client, err := apitest.New(server.Handler(), apitest.WithSigningKey(key, ""))
//	alice, err := client.As(auth.NewUser("alice", "ROLE_USER"))
//	resp, err := alice.Post("/books", map[string]any{"title": ""})
//
//	alice.Expect(t, resp).ToHaveViolationMessage("title", "This value should not be blank.")
//
// As forges a session token for the user and sends it as the jwt_hp and jwt_s cookies.
// Mock queues handlers that answer the next requests instead of the application.
//
// Expectations stop the test on the first failed assertion (TestingT.FailNow).
// Relation assertions resolve IRIs with the hydra.Router bound to the client.
package apitest
