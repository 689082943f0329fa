package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

func intArg(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func (c *cli) employeesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "employees", Short: "Manage employees"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			employees, err := services.Employees.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(employees))
			for _, e := range employees {
				rows = append(rows, table.Row{e.ID, e.ShortName(), e.Age})
			}
			return c.render(cmd.OutOrStdout(), employees, table.Row{"ID", "Name", "Age"}, rows)
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args[0])
			if err != nil {
				return err
			}
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			e, err := services.Employees.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("employee %d: %w", id, domain.ErrNotFound)
			}
			return c.render(cmd.OutOrStdout(), e,
				table.Row{"ID", "Last name", "First name", "Patronymic", "Age"},
				[]table.Row{{e.ID, e.LastName, e.FirstName, e.Patronymic, e.Age}})
		},
	}

	var employee domain.Employee
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an employee",
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			id, err := services.Employees.Add(cmd.Context(), &employee)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "employee %d created\n", id)
			return nil
		},
	}
	add.Flags().StringVar(&employee.LastName, "last-name", "", "last name")
	add.Flags().StringVar(&employee.FirstName, "first-name", "", "first name")
	add.Flags().StringVar(&employee.Patronymic, "patronymic", "", "patronymic")
	add.Flags().IntVar(&employee.Age, "age", 18, "age")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args[0])
			if err != nil {
				return err
			}
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			deleted, err := services.Employees.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted: %t\n", deleted)
			return nil
		},
	}

	cmd.AddCommand(list, get, add, del)
	return cmd
}

func (c *cli) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Browse the product catalog"}

	sections := &cobra.Command{
		Use:   "sections",
		Short: "List sections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			items, err := services.Products.GetSections(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(items))
			for _, s := range items {
				parent := ""
				if s.ParentID != nil {
					parent = strconv.Itoa(*s.ParentID)
				}
				rows = append(rows, table.Row{s.ID, s.Name, s.Order, parent})
			}
			return c.render(cmd.OutOrStdout(), items, table.Row{"ID", "Name", "Order", "Parent"}, rows)
		},
	}

	brands := &cobra.Command{
		Use:   "brands",
		Short: "List brands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			items, err := services.Products.GetBrands(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(items))
			for _, b := range items {
				rows = append(rows, table.Row{b.ID, b.Name, b.Order})
			}
			return c.render(cmd.OutOrStdout(), items, table.Row{"ID", "Name", "Order"}, rows)
		},
	}

	var sectionID, brandID int
	products := &cobra.Command{
		Use:   "products",
		Short: "List products matching a filter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			filter := &domain.ProductFilter{}
			if cmd.Flags().Changed("section") {
				filter.SectionID = &sectionID
			}
			if cmd.Flags().Changed("brand") {
				filter.BrandID = &brandID
			}
			items, err := services.Products.GetProducts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(items))
			for _, p := range items {
				section, brand := "", ""
				if p.Section != nil {
					section = p.Section.Name
				}
				if p.Brand != nil {
					brand = p.Brand.Name
				}
				rows = append(rows, table.Row{p.ID, p.Name, p.Price.StringFixed(2), section, brand})
			}
			return c.render(cmd.OutOrStdout(), items, table.Row{"ID", "Name", "Price", "Section", "Brand"}, rows)
		},
	}
	products.Flags().IntVar(&sectionID, "section", 0, "section id")
	products.Flags().IntVar(&brandID, "brand", 0, "brand id")

	cmd.AddCommand(sections, brands, products)
	return cmd
}

func (c *cli) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Inspect orders"}

	list := &cobra.Command{
		Use:   "list USER",
		Short: "List orders of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			orders, err := services.Orders.GetUserOrders(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.renderOrders(cmd, orders)
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args[0])
			if err != nil {
				return err
			}
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			order, err := services.Orders.GetOrderByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if order == nil {
				return fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
			}
			return c.renderOrders(cmd, []domain.Order{*order})
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func (c *cli) renderOrders(cmd *cobra.Command, orders []domain.Order) error {
	rows := make([]table.Row, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, table.Row{o.ID, o.UserName, o.Date.Format("2006-01-02 15:04"), o.ItemsCount(), o.TotalPrice().StringFixed(2)})
	}
	return c.render(cmd.OutOrStdout(), orders, table.Row{"ID", "User", "Date", "Items", "Total"}, rows)
}

func (c *cli) valuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "values",
		Short: "List test values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			values, err := services.Values.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(values))
			for i, v := range values {
				rows = append(rows, table.Row{i, v})
			}
			return c.render(cmd.OutOrStdout(), values, table.Row{"#", "Value"}, rows)
		},
	}
}

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Inspect identity users"}

	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a user with roles and claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			user, err := services.Users.FindUserByName(ctx, domain.Normalize(args[0]))
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("user %q: %w", args[0], domain.ErrNotFound)
			}
			roles, err := services.Users.GetRoles(ctx, user)
			if err != nil {
				return err
			}
			claims, err := services.Users.GetClaims(ctx, user)
			if err != nil {
				return err
			}

			view := struct {
				User   *domain.User   `json:"user"`
				Roles  []string       `json:"roles"`
				Claims []domain.Claim `json:"claims"`
			}{user, roles, claims}
			return c.render(cmd.OutOrStdout(), view,
				table.Row{"ID", "Name", "Email", "Roles", "Claims"},
				[]table.Row{{user.ID, user.UserName, user.Email, len(roles), len(claims)}})
		},
	}

	inRole := &cobra.Command{
		Use:   "in-role ROLE",
		Short: "List users in a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			users, err := services.Users.GetUsersInRole(cmd.Context(), domain.Normalize(args[0]))
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(users))
			for _, u := range users {
				rows = append(rows, table.Row{u.ID, u.UserName, u.Email})
			}
			return c.render(cmd.OutOrStdout(), users, table.Row{"ID", "Name", "Email"}, rows)
		},
	}

	cmd.AddCommand(show, inRole)
	return cmd
}

func (c *cli) rolesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "roles", Short: "Manage identity roles"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			roles, err := services.Roles.GetRoles(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(roles))
			for _, r := range roles {
				rows = append(rows, table.Row{r.ID, r.Name})
			}
			return c.render(cmd.OutOrStdout(), roles, table.Row{"ID", "Name"}, rows)
		},
	}

	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := c.remote(cmd)
			if err != nil {
				return err
			}
			role := &domain.Role{Name: args[0], NormalizedName: domain.Normalize(args[0])}
			if err := services.Roles.CreateRole(cmd.Context(), role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "role %s created\n", role.ID)
			return nil
		},
	}

	cmd.AddCommand(list, create)
	return cmd
}
