// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package emulator implementa um servidor SimpleDB em memória, compatível
// com o protocolo Query (parâmetros na URL, respostas XML), para testes de
// integração e desenvolvimento local sem depender da AWS.
//
// Ações suportadas: CreateDomain, DeleteDomain, ListDomains, DomainMetadata,
// PutAttributes, GetAttributes, DeleteAttributes, BatchPutAttributes,
// BatchDeleteAttributes e Select.
//
// As condições Expected.N.* são avaliadas como no serviço real:
// ConditionalCheckFailed (409), AttributeDoesNotExist (404) e
// IncompleteExpectedValues (400). Lotes com mais de 25 itens retornam
// NumberSubmittedItemsExceeded.
//
// O Select aceita um subconjunto da linguagem:
//
//	select <*|itemName()|count(*)|a, b> from <domínio>
//	    [where <cond> [and <cond> ...]] [limit N]
//
// onde <cond> é itemName() ou um atributo comparado com =, !=, <, <=, >, >=,
// like, in (...), is null ou is not null. Comparações são lexicográficas e,
// para atributos multivalorados, basta um valor satisfazer a condição. Os
// itens saem ordenados pelo nome e o NextToken é opaco (base64).
//
// Assinaturas não são verificadas: qualquer AWSAccessKeyId é aceito.
//
// Exemplo com o cliente sdb:
//
//	srv := httptest.NewServer(emulator.New(emulator.Options{PageSize: 100}))
//	defer srv.Close()
//
//	client, _ := sdb.New(sdb.Config{
//	    AccessKey:  "local",
//	    SecretKey:  "local",
//	    Host:       strings.TrimPrefix(srv.URL, "http://"),
//	    DisableSSL: true,
//	})
//
// Um arquivo JSON pode pré-carregar domínios (ver LoadSeedFile):
//
//	{
//	  "users": {
//	    "u1": {"name": ["Ana"], "tags": ["a", "b"]}
//	  }
//	}
package emulator
