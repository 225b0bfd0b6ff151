// Package sdb_toolkit reúne um cliente para o Amazon SimpleDB e as
// ferramentas em volta dele: configuração, credenciais, export de dados,
// emulador local e CLIs.
//
// Visão Geral:
// O cliente fala a Query API do SimpleDB diretamente (HTTP + XML, assinatura
// versão 2) e não depende de nenhum SDK da AWS. Os demais pacotes montam o
// cliente a partir de YAML/variáveis de ambiente e levam o resultado de um
// Select para outros destinos.
//
// Sub-Pacotes Principais:
//
// 1. sdb:
//   - Domínios, atributos, escrita condicional, batch e Select paginado.
//   - Filas por domínio com envio automático em lotes de 25.
//   - Modos de erro Raise, Report e Ignore.
//
// 2. pkg/config (+ injector):
//   - Carregamento via tags "env" e "envDefault", YAML e validação.
//   - Placeholders ${env.X}, ${ssm.X} e ${secret.X}.
//
// 3. pkg/credentials e pkg/bootstrap:
//   - Chaves estáticas, cadeia padrão da AWS, SSM ou Secrets Manager.
//   - Toolkit com logger, métricas e retry já ligados ao cliente.
//
// 4. pkg/export e pkg/transport:
//   - Cópia de um Select para DynamoDB, S3, SQS, Redis ou Postgres, com
//     filtro e transformações CEL.
//   - Execução sob demanda via HTTP, Lambda (SQS) ou worker.
//
// 5. tools/emulator:
//   - Servidor em memória compatível com a Query API, usado nos testes e
//     pelo cmd/emulator.
//
// Exemplo de Início Rápido:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/raywall/fast-sdb-toolkit/pkg/bootstrap"
//		"github.com/raywall/fast-sdb-toolkit/pkg/config"
//		"github.com/raywall/fast-sdb-toolkit/sdb"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		// 1. Configuração (SDB_HOST, SDB_ACCESS_KEY, SDB_SECRET_KEY...)
//		settings := config.MustLoad("")
//
//		// 2. Cliente pronto, com logger e métricas
//		tk, err := bootstrap.New(ctx, settings, bootstrap.Options{})
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer tk.Close()
//
//		// 3. Uso
//		_ = tk.Client.CreateDomain(ctx, "users")
//		err = tk.Retry(ctx, func(ctx context.Context) error {
//			return tk.Client.PutAttributes(ctx, "users", "u1", []sdb.AttributeWrite{
//				sdb.PutReplace("email", "a@b.com"),
//			})
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//	}
package sdb_toolkit
