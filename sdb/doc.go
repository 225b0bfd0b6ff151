// Package sdb fornece um cliente para o Amazon SimpleDB sobre a Query API
// (HTTP + XML, assinatura versão 2 com HmacSHA256).
//
// Visão Geral:
// O pacote `sdb` monta requisições assinadas para cada ação do SimpleDB
// (CreateDomain, PutAttributes, BatchPutAttributes, Select, ...), envia pela
// interface `HTTPClient` injetada e converte o XML de resposta em tipos Go.
// Erros reportados pelo serviço viram registros em `Errors`.
//
// Funcionalidades Principais:
// - Domínios: `CreateDomain`, `DeleteDomain`, `ListDomains`, `DomainMetadata`.
// - Atributos: `PutAttributes`, `GetAttributes`, `DeleteAttributes` com
// escrita condicional (`WithExpected`).
// - Batch: `BatchPutAttributes` e `BatchDeleteAttributes` (máx 25 itens por chamada).
// - Fila: `QueuePutAttributes` / `QueueDeleteAttributes` acumulam operações por
// domínio e enviam em lotes de 25, automaticamente ou via `FlushQueues`.
// - Select: paginação automática com `WithFetchAll` e limite `WithMaxItems`.
// - Modos de erro: `ErrorModeIgnore`, `ErrorModeReport` e `ErrorModeRaise`.
// - Mocks Integrados: `MockHTTPClient` para testes unitários sem rede.
//
// Exemplo Básico:
//
//	client, err := sdb.New(sdb.Config{
//		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
//		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
//		ErrorMode: sdb.ErrorModeRaise,
//	})
//
//	_ = client.CreateDomain(ctx, "users")
//	_ = client.PutAttributes(ctx, "users", "u1", []sdb.AttributeWrite{
//		sdb.Put("email", "a@b.com"),
//		sdb.PutReplace("tags", "admin", "beta"),
//	})
//
//	attrs, err := client.GetAttributes(ctx, "users", "u1", nil, true)
//	fmt.Println(attrs.First("email"))
//
// Exemplo de Select paginado:
//
//	res, err := client.Select(ctx, "select * from `users`",
//		sdb.WithFetchAll(), sdb.WithMaxItems(5000))
//	fmt.Println(len(res.Items), res.BoxUsage)
//
// Quando `WithMaxItems` é usado junto de `WithFetchAll`, o cliente para de
// buscar páginas assim que o total acumulado atinge o limite, mas mantém
// todos os itens da última página. O resultado pode exceder o limite em até
// uma página.
package sdb
