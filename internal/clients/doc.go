// Package clients содержит типизированные клиенты Web API. Каждый клиент
// реализует тот же доменный интерфейс, что и локальное хранилище, и
// переводит вызовы в запросы к фиксированному корню ресурса.
//
// Отсутствие ресурса (404) превращается в пустой результат: nil для
// поиска, false для удаления. Остальные ошибки транспорта возвращаются
// вызывающему без изменений.
package clients
